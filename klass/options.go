package klass

import "go.uber.org/zap"

// DefaultPrimaryLimit is the primary supers capacity used when no
// WithPrimaryLimit option is given.
const DefaultPrimaryLimit = 8

// Option configures a Registry.
type Option func(*config)

type config struct {
	limit           int
	logger          *zap.Logger
	arrayRoot       string
	arrayInterfaces []string
}

func defaultConfig() config {
	return config{
		limit:  DefaultPrimaryLimit,
		logger: zap.NewNop(),
	}
}

// WithPrimaryLimit sets L, the capacity of every primary supers array.
// It must be at least 1.
func WithPrimaryLimit(limit int) Option {
	return func(c *config) {
		c.limit = limit
	}
}

// WithLogger sets the logger used for registration events.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithArrayRoot names the root class every array type extends.
// The class must be registered before the first ArrayOf call.
func WithArrayRoot(name string) Option {
	return func(c *config) {
		c.arrayRoot = name
	}
}

// WithArrayInterfaces names the interfaces every array type implements.
func WithArrayInterfaces(names ...string) Option {
	return func(c *config) {
		c.arrayInterfaces = append([]string(nil), names...)
	}
}
