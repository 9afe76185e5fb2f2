package bus

import (
	validatorV10 "github.com/go-playground/validator/v10"

	"github.com/tonika/tonika-bus/logging"
	"github.com/tonika/tonika-bus/metrics"
)

var validator = validatorV10.New()

// Options configures a Bus. The scalar fields can be bound from the
// toolkit configuration; Logger and Metrics are wired by the host.
type Options struct {
	// Debug enables trace logging of emit/subscribe/unsubscribe.
	Debug bool `mapstructure:"debug" json:"debug" yaml:"debug"`

	// AsyncWorkers is the size of the async dispatch pool.
	AsyncWorkers int `mapstructure:"async-workers" json:"asyncWorkers" yaml:"async-workers" default:"4" validate:"omitempty,gte=1,lte=128"`

	// AsyncQueue is the async dispatch queue depth. When the queue is
	// full, async handlers fall back to running inline.
	AsyncQueue int `mapstructure:"async-queue" json:"asyncQueue" yaml:"async-queue" default:"256" validate:"omitempty,gte=1,lte=65536"`

	// Logger receives bus trace and warning output. Defaults to a named
	// child of the global logger.
	Logger logging.Logger `mapstructure:"-" json:"-" yaml:"-"`

	// Metrics, when set, receives bus counters and gauges.
	Metrics *metrics.Collector `mapstructure:"-" json:"-" yaml:"-"`
}

// DefaultOptions returns the options used by the process-wide bus.
func DefaultOptions() Options {
	return Options{
		AsyncWorkers: 4,
		AsyncQueue:   256,
	}
}

// Validate checks the scalar fields against their constraints.
func (o Options) Validate() error {
	return validator.Struct(o)
}

// applyDefaults fills zero-valued scalar fields.
func (o *Options) applyDefaults() {
	def := DefaultOptions()
	if o.AsyncWorkers <= 0 {
		o.AsyncWorkers = def.AsyncWorkers
	}
	if o.AsyncQueue <= 0 {
		o.AsyncQueue = def.AsyncQueue
	}
}
