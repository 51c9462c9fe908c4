// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package watermark

import "errors"

// ErrEmptyKey is returned by NewConfig when the watermark key is empty.
// A blank key would make the block shuffle and coefficient-position
// sequence depend on the image dimensions alone, so anyone could
// reproduce it, defeating the key sensitivity a watermarking key
// provides.
var ErrEmptyKey = errors.New("watermark: watermark_key must not be empty")

// DefaultQIMStep is the quantization step used when WithQIMStep is not
// supplied. It is the single knob trading imperceptibility against
// robustness; 40.0 is the value pinned by the wire format's reference
// implementation.
const DefaultQIMStep = 40.0

// Option configures a Config via the functional-options pattern.
type Option func(*configOptions)

// configOptions accumulates Option values before NewConfig validates and
// freezes them into a Config.
type configOptions struct {
	qimStep         float64
	ownerUUID       uint64
	allowReprint    bool
	allowDerivative bool
}

// WithQIMStep overrides the QIM quantization step Δ. The default is
// DefaultQIMStep (40.0). Smaller steps favor imperceptibility; larger
// steps favor robustness to recompression and resizing.
func WithQIMStep(step float64) Option {
	return func(c *configOptions) {
		c.qimStep = step
	}
}

// WithOwnerUUID sets the default caller identity for batch tooling
// built on top of this package. The core codec calls (Embed, Extract,
// CreateMaster, MintDistribution, UpdateMasterFlags) all take their
// caller/holder UID as an explicit argument and never read this value,
// and internal/batch does not read it either; it exists purely so a host
// application has one place to keep its configured identity alongside
// the watermark key and step size.
func WithOwnerUUID(uid uint64) Option {
	return func(c *configOptions) {
		c.ownerUUID = uid
	}
}

// WithDefaultFlags sets the default permission flags a host can pass
// to CreateMaster when admitting a new master. CreateMaster itself
// admits with its explicit flags argument and does not read this value.
func WithDefaultFlags(allowReprint, allowDerivative bool) Option {
	return func(c *configOptions) {
		c.allowReprint = allowReprint
		c.allowDerivative = allowDerivative
	}
}

// Config is the immutable configuration snapshot every codec call takes.
// It carries no mutable state and no package-level globals are consulted
// during Embed/Extract/CreateMaster/MintDistribution/UpdateMasterFlags:
// two concurrent calls sharing one Config never interfere with each
// other.
type Config struct {
	key             string
	qimStep         float64
	ownerUUID       uint64
	allowReprint    bool
	allowDerivative bool
}

// NewConfig builds a Config from the required watermark key and any
// number of Options. key drives both the block shuffle and the
// mid-frequency coefficient position (internal/mt19937, seeded via
// seedFor) and must be kept secret and stable for a deployment: two
// Configs with different keys will shuffle blocks differently and are,
// by design, unable to recover each other's payloads.
func NewConfig(key string, opts ...Option) (Config, error) {
	if key == "" {
		return Config{}, ErrEmptyKey
	}

	o := &configOptions{
		qimStep: DefaultQIMStep,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.qimStep <= 0 {
		return Config{}, errors.New("watermark: qim_step must be positive")
	}

	return Config{
		key:             key,
		qimStep:         o.qimStep,
		ownerUUID:       o.ownerUUID,
		allowReprint:    o.allowReprint,
		allowDerivative: o.allowDerivative,
	}, nil
}

// Key returns the watermark key this Config was built with.
func (c Config) Key() string { return c.key }

// QIMStep returns the configured QIM quantization step Δ.
func (c Config) QIMStep() float64 { return c.qimStep }

// OwnerUUID returns the default caller identity configured for batch
// tooling; the core codec calls ignore it.
func (c Config) OwnerUUID() uint64 { return c.ownerUUID }

// DefaultFlags returns the configured default permission flags for new
// masters; CreateMaster does not read them and uses its flags argument.
func (c Config) DefaultFlags() Flags {
	var f Flags
	if c.allowReprint {
		f |= FlagAllowReprint
	}
	if c.allowDerivative {
		f |= FlagAllowDerivative
	}
	return f
}
