package pool

import (
	"io"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"
)

// Config describes a pool's shape so that it can be sized from a service's
// configuration file.
//
//	name: frames
//	capacity: 1024
//	extra_bytes: 4096
//	alignment: 64
//	backing: mmap
type Config struct {
	Name       string  `yaml:"name"`
	Capacity   int     `yaml:"capacity"`
	ExtraBytes int     `yaml:"extra_bytes"`
	Alignment  int     `yaml:"alignment,omitempty"`
	Backing    Backing `yaml:"backing,omitempty"`
}

// LoadConfig decodes a YAML pool configuration and validates it. Unknown
// keys are rejected.
func LoadConfig(r io.Reader) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, errors.Annotate(err, "decoding pool config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Trace(err)
	}
	return cfg, nil
}

// Validate checks the fields that can be judged without a payload type.
// Size limits that depend on the payload are checked when the pool is built.
func (c Config) Validate() error {
	if c.Capacity < 0 || c.Capacity >= MaxCapacity {
		return errors.NotValidf("capacity %d", c.Capacity)
	}
	if c.ExtraBytes < 0 {
		return errors.NotValidf("extra_bytes %d", c.ExtraBytes)
	}
	if c.Alignment < 0 || c.Alignment&(c.Alignment-1) != 0 {
		return errors.NotValidf("alignment %d", c.Alignment)
	}
	switch c.Backing {
	case "", BackingHeap:
	case BackingMmap:
		if !mmapSupported {
			return errors.NotSupportedf("backing %q", c.Backing)
		}
	default:
		return errors.NotValidf("backing %q", c.Backing)
	}
	return nil
}

// Options converts the configuration into construction options.
func (c Config) Options() []Option {
	opts := []Option{WithName(c.Name), WithAlignment(c.Alignment)}
	if c.Backing != "" {
		opts = append(opts, WithBacking(c.Backing))
	}
	return opts
}

// FromConfig builds a pool shaped by cfg. opts are applied after the
// configuration's own options.
func FromConfig[T any](cfg Config, init func() (T, error), opts ...Option) (*Pool[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return New(cfg.Capacity, cfg.ExtraBytes, init, append(cfg.Options(), opts...)...)
}
