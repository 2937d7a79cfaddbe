package sweep

import (
	"time"

	"github.com/sirupsen/logrus"
)

type Options struct {
	PollInterval   time.Duration
	BatchSize      int
	SingleActive   bool
	ProcessTimeout time.Duration

	Logger *logrus.Entry
}

func (o *Options) setDefaults() {
	if o.PollInterval == 0 {
		o.PollInterval = 15 * time.Minute
	}
	if o.BatchSize == 0 {
		o.BatchSize = 200
	}
	if o.ProcessTimeout == 0 {
		o.ProcessTimeout = 30 * time.Second
	}
}

func logrusNop() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(logger)
}
