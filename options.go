package graphstore

import (
	"fmt"
	"log/slog"

	"github.com/signadot/graphstore/registry"
)

const (
	DefaultThreshold     = 100
	DefaultPrivatePrefix = "_"
	DefaultUmask         = 022
)

// CastPolicy decides what happens when a stored primitive does not
// match the type of the live value it is loaded into.
type CastPolicy int

const (
	// CastSafe converts between numbers, and between numbers and
	// strings, when no information is lost.
	CastSafe CastPolicy = iota
	// CastNone keeps the live value on any type mismatch.
	CastNone
)

func (c CastPolicy) String() string {
	switch c {
	case CastSafe:
		return "safe"
	case CastNone:
		return "none"
	}
	return fmt.Sprintf("CastPolicy(%d)", int(c))
}

// ParseCastPolicy parses the name of a cast policy.
func ParseCastPolicy(s string) (CastPolicy, error) {
	switch s {
	case "safe", "":
		return CastSafe, nil
	case "none":
		return CastNone, nil
	}
	return 0, fmt.Errorf("unknown cast policy %q", s)
}

// Options configures saving and loading.
type Options struct {
	// Threshold is the element count above which arrays are stored
	// as blobs.
	Threshold int
	// PrivatePrefix marks fields which are not stored when HidePrivate
	// is set.
	PrivatePrefix string
	HidePrivate   bool
	Cast          CastPolicy
	Registry      *registry.Registry
	Logger        *slog.Logger
	// OnWarning, when set, is called for every recovered error.
	OnWarning func(*Warning)
	// LoadGC removes blobs not referenced by a loaded snapshot.
	LoadGC bool
	Umask  int
}

type Option func(*Options)

func WithThreshold(n int) Option {
	return func(o *Options) { o.Threshold = n }
}

func WithPrivatePrefix(p string) Option {
	return func(o *Options) { o.PrivatePrefix = p }
}

func WithHidePrivate(v bool) Option {
	return func(o *Options) { o.HidePrivate = v }
}

func WithCastPolicy(c CastPolicy) Option {
	return func(o *Options) { o.Cast = c }
}

func WithRegistry(r *registry.Registry) Option {
	return func(o *Options) { o.Registry = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

func WithOnWarning(f func(*Warning)) Option {
	return func(o *Options) { o.OnWarning = f }
}

func WithLoadGC(v bool) Option {
	return func(o *Options) { o.LoadGC = v }
}

func WithUmask(m int) Option {
	return func(o *Options) { o.Umask = m }
}

func newOptions(opts ...Option) *Options {
	o := &Options{
		Threshold:     DefaultThreshold,
		PrivatePrefix: DefaultPrivatePrefix,
		HidePrivate:   true,
		Cast:          CastSafe,
		LoadGC:        true,
		Umask:         DefaultUmask,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.Registry == nil {
		o.Registry = registry.New()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}
