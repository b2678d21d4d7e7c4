package di

import (
	"github.com/kbukum/iockit/logger"
)

// Option configures a Container.
type Option func(*Container)

// WithNotifier sets the sink for container events.
func WithNotifier(n Notifier) Option {
	return func(c *Container) { c.notifier = n }
}

// WithLogger sets the container logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Container) { c.log = l }
}

// DefineOption configures a single Define or Children call.
type DefineOption func(*defineOptions)

type defineOptions struct {
	force  bool
	filter func(name string, value any) bool
}

// Force replaces an existing module registered under the same key.
func Force() DefineOption {
	return func(o *defineOptions) { o.force = true }
}

// WithFilter skips Children entries for which keep returns false.
func WithFilter(keep func(name string, value any) bool) DefineOption {
	return func(o *defineOptions) { o.filter = keep }
}

func applyDefineOptions(opts []DefineOption) defineOptions {
	var o defineOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
