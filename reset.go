package pool

import (
	"reflect"

	"github.com/juju/errors"
)

// Policy decides what state a reused value presents. OnCheckout runs just
// before a value is handed out by Checkout; OnCheckin runs when a checkout
// is released, before the slot can be handed out again.
type Policy[T any] interface {
	OnCheckout(v *T)
	OnCheckin(v *T)
}

// Resetter is implemented by values that control their own reuse state.
type Resetter interface {
	ResetOnCheckout()
	ResetOnCheckin()
}

// Clearer is implemented by values that can be emptied in place, such as
// *bytes.Buffer and *strings.Builder.
type Clearer interface {
	Reset()
}

// PolicyFunc builds a Policy from two optional hooks.
type PolicyFunc[T any] struct {
	Checkout func(*T)
	Checkin  func(*T)
}

func (p PolicyFunc[T]) OnCheckout(v *T) {
	if p.Checkout != nil {
		p.Checkout(v)
	}
}

func (p PolicyFunc[T]) OnCheckin(v *T) {
	if p.Checkin != nil {
		p.Checkin(v)
	}
}

// Dirty never resets: a checkout sees the value exactly as it was last
// released.
func Dirty[T any]() Policy[T] {
	return PolicyFunc[T]{}
}

// ResetOnCheckout runs reset before every Checkout hands a value out.
func ResetOnCheckout[T any](reset func(*T)) Policy[T] {
	return PolicyFunc[T]{Checkout: reset}
}

// ResetOnCheckin runs reset as soon as a checkout is released, so idle
// values hold no transient state.
func ResetOnCheckin[T any](reset func(*T)) Policy[T] {
	return PolicyFunc[T]{Checkin: reset}
}

// Default picks a policy from what the payload supports. A Resetter decides
// for itself; a Clearer is cleared on checkout; anything else is Dirty.
// Both T and *T are inspected, so pools of pointers work too, and
// interface-typed payloads are inspected value by value.
func Default[T any]() Policy[T] {
	var v T
	switch any(&v).(type) {
	case Resetter:
		return resetterPolicy[T]{}
	case Clearer:
		return ResetOnCheckout(func(p *T) { any(p).(Clearer).Reset() })
	}
	switch any(v).(type) {
	case Resetter:
		return PolicyFunc[T]{
			Checkout: func(p *T) { any(*p).(Resetter).ResetOnCheckout() },
			Checkin:  func(p *T) { any(*p).(Resetter).ResetOnCheckin() },
		}
	case Clearer:
		return ResetOnCheckout(func(p *T) { any(*p).(Clearer).Reset() })
	}
	if reflect.TypeFor[T]().Kind() == reflect.Interface {
		return dynamicPolicy[T]{}
	}
	return Dirty[T]()
}

// resetterPolicy forwards both hooks to a payload implementing Resetter.
type resetterPolicy[T any] struct{}

func (resetterPolicy[T]) OnCheckout(v *T) { any(v).(Resetter).ResetOnCheckout() }
func (resetterPolicy[T]) OnCheckin(v *T)  { any(v).(Resetter).ResetOnCheckin() }

// dynamicPolicy covers interface-typed payloads, whose capabilities are only
// known once a concrete value is stored.
type dynamicPolicy[T any] struct{}

func (dynamicPolicy[T]) OnCheckout(v *T) {
	switch x := any(*v).(type) {
	case Resetter:
		x.ResetOnCheckout()
	case Clearer:
		x.Reset()
	}
}

func (dynamicPolicy[T]) OnCheckin(v *T) {
	if x, ok := any(*v).(Resetter); ok {
		x.ResetOnCheckin()
	}
}

// ClearSlice empties a slice while keeping its capacity.
func ClearSlice[E any](s *[]E) {
	clear(*s)
	*s = (*s)[:0]
}

// ClearMap deletes every key of a map, keeping its storage.
func ClearMap[K comparable, V any](m *map[K]V) {
	clear(*m)
}

// Zero restores the zero value, dropping anything the value referenced.
func Zero[T any](v *T) {
	var zero T
	*v = zero
}

func resolvePolicy[T any](p any) (Policy[T], error) {
	if p == nil {
		return Default[T](), nil
	}
	if policy, ok := p.(Policy[T]); ok {
		return policy, nil
	}
	return nil, errors.Annotatef(ErrPolicyType, "policy %T for payload %s", p, reflect.TypeFor[T]())
}

func resolveDestroy[T any](fn any) (func(*T), error) {
	if fn == nil {
		return nil, nil
	}
	if destroy, ok := fn.(func(*T)); ok {
		return destroy, nil
	}
	return nil, errors.Annotatef(ErrPolicyType, "destroy hook %T for payload %s", fn, reflect.TypeFor[T]())
}
