package interpreter

import (
	"github.com/sirupsen/logrus"

	"scrapeflow/domain/interfaces"
)

// Options configures an Interpreter. All fields are optional; see
// DefaultOptions for the values spec.md §6 specifies.
type Options struct {
	MaxRepeats     int
	MaxConcurrency int
	Debug          bool
	Host           interfaces.Host
	Logger         *logrus.Logger
}

// DefaultOptions matches spec.md §6: maxRepeats=5, maxConcurrency=5,
// debug=false, callbacks default to a no-op host that warns on every call.
func DefaultOptions() Options {
	return Options{
		MaxRepeats:     5,
		MaxConcurrency: 5,
		Debug:          false,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxRepeats <= 0 {
		o.MaxRepeats = d.MaxRepeats
	}
	if o.MaxConcurrency <= 0 {
		o.MaxConcurrency = d.MaxConcurrency
	}
	if o.Logger == nil {
		o.Logger = logrus.New()
	}
	if o.Host == nil {
		logger := o.Logger
		o.Host = interfaces.NoopHost{Warn: func(callback string) {
			logger.Warnf("no host configured, dropping %s callback", callback)
		}}
	}
	return o
}
