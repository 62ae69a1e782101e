package pool

import "github.com/juju/errors"

const (
	// ErrReleased is returned when a checkout is released more than once,
	// or when the zero Checkout is released.
	ErrReleased = errors.ConstError("checkout already released")

	// ErrCapacity reports a slot count or arena size beyond MaxCapacity.
	ErrCapacity = errors.ConstError("requested pool capacity too big")

	// ErrPolicyType reports a reset policy or destroy hook built for a
	// different payload type than the pool's.
	ErrPolicyType = errors.ConstError("hook does not match payload type")
)
