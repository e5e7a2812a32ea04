package as7262

import (
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
)

const (
	defaultDataReadyTimeout      = 10 * time.Second
	defaultDataReadyPollInterval = 5 * time.Millisecond
	// time determined experimentally, the bus times out with anything shorter
	defaultResetDelay = 800 * time.Millisecond
)

type AS7262Opts struct {
	Address byte
	Clock   clock.Clock
	// HandshakePollInterval is the pause between status register polls. Zero means a tight loop.
	HandshakePollInterval time.Duration
	// HandshakeTimeout bounds a single status wait of the register handshake. Zero means unbounded.
	HandshakeTimeout      time.Duration
	DataReadyPollInterval time.Duration
	DataReadyTimeout      time.Duration
	ResetDelay            time.Duration
	Logger                *slog.Logger
}

type AS7262Opt func(*AS7262Opts)

func defaultOpts() AS7262Opts {
	return AS7262Opts{
		Address:               DefaultAddress,
		Clock:                 clock.New(),
		DataReadyPollInterval: defaultDataReadyPollInterval,
		DataReadyTimeout:      defaultDataReadyTimeout,
		ResetDelay:            defaultResetDelay,
	}
}

func WithAddress(address byte) AS7262Opt {
	return func(o *AS7262Opts) {
		o.Address = address
	}
}

// WithClock replaces the wall clock used for polling, timeouts and the reset settle time.
func WithClock(c clock.Clock) AS7262Opt {
	return func(o *AS7262Opts) {
		o.Clock = c
	}
}

func WithHandshakePollInterval(interval time.Duration) AS7262Opt {
	return func(o *AS7262Opts) {
		o.HandshakePollInterval = interval
	}
}

func WithHandshakeTimeout(timeout time.Duration) AS7262Opt {
	return func(o *AS7262Opts) {
		o.HandshakeTimeout = timeout
	}
}

func WithDataReadyPollInterval(interval time.Duration) AS7262Opt {
	return func(o *AS7262Opts) {
		o.DataReadyPollInterval = interval
	}
}

func WithDataReadyTimeout(timeout time.Duration) AS7262Opt {
	return func(o *AS7262Opts) {
		o.DataReadyTimeout = timeout
	}
}

func WithResetDelay(delay time.Duration) AS7262Opt {
	return func(o *AS7262Opts) {
		o.ResetDelay = delay
	}
}

func WithLogger(logger *slog.Logger) AS7262Opt {
	return func(o *AS7262Opts) {
		o.Logger = logger
	}
}

func buildOpts(opts []AS7262Opt) AS7262Opts {
	config := defaultOpts()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Clock == nil {
		config.Clock = clock.New()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return config
}
