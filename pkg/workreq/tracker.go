// Package workreq tracks asynchronous provider work requests to
// completion with a bounded, budgeted poll loop.
package workreq

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ocilift/ocilift/pkg/backend"
	"github.com/ocilift/ocilift/pkg/telemetry"
)

// Config bounds the tracking of one work request.
type Config struct {
	// MaxPolls is the poll budget. The budget is consumed only by polls
	// that return a readable status.
	MaxPolls int `yaml:"max_polls" validate:"min=1"`

	// InitialInterval is the delay before the first re-poll.
	InitialInterval time.Duration `yaml:"initial_interval" validate:"min=0"`

	// MaxInterval caps the backoff between polls.
	MaxInterval time.Duration `yaml:"max_interval" validate:"min=0"`

	// Multiplier grows the interval after each poll.
	Multiplier float64 `yaml:"multiplier" validate:"gte=1"`

	// TransportRetries is how many consecutive unreadable polls
	// (transport failures) are tolerated before giving up.
	TransportRetries int `yaml:"transport_retries" validate:"min=0"`
}

// UnmarshalYAML decodes the config, accepting human-readable durations
// like "30s". Keys absent from the document keep their current values.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	raw := struct {
		MaxPolls         *int     `yaml:"max_polls"`
		InitialInterval  *string  `yaml:"initial_interval"`
		MaxInterval      *string  `yaml:"max_interval"`
		Multiplier       *float64 `yaml:"multiplier"`
		TransportRetries *int     `yaml:"transport_retries"`
	}{}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.MaxPolls != nil {
		c.MaxPolls = *raw.MaxPolls
	}
	if raw.InitialInterval != nil {
		d, err := time.ParseDuration(*raw.InitialInterval)
		if err != nil {
			return fmt.Errorf("invalid initial_interval: %w", err)
		}
		c.InitialInterval = d
	}
	if raw.MaxInterval != nil {
		d, err := time.ParseDuration(*raw.MaxInterval)
		if err != nil {
			return fmt.Errorf("invalid max_interval: %w", err)
		}
		c.MaxInterval = d
	}
	if raw.Multiplier != nil {
		c.Multiplier = *raw.Multiplier
	}
	if raw.TransportRetries != nil {
		c.TransportRetries = *raw.TransportRetries
	}
	return nil
}

// DefaultConfig returns the default tracking bounds.
func DefaultConfig() Config {
	return Config{
		MaxPolls:         30,
		InitialInterval:  2 * time.Second,
		MaxInterval:      30 * time.Second,
		Multiplier:       1.5,
		TransportRetries: 3,
	}
}

// Result is the terminal outcome of tracking one work request.
// Exhaustion of the poll budget is an outcome, not a failure: the
// request may still complete after we stop watching.
type Result struct {
	// WorkRequestID is the tracked identifier.
	WorkRequestID string `json:"work_request_id"`

	// Status is the last observed status. StatusUnknown when the budget
	// ran out before a terminal status was seen.
	Status backend.WorkRequestStatus `json:"status"`

	// PercentComplete is the last observed completion percentage.
	PercentComplete float32 `json:"percent_complete,omitempty"`

	// Polls is how many readable polls were spent.
	Polls int `json:"polls"`

	// Exhausted reports whether tracking stopped on budget rather than
	// on a terminal status.
	Exhausted bool `json:"exhausted"`

	// Elapsed is the total time spent tracking.
	Elapsed time.Duration `json:"-"`
}

// Tracker polls work requests until they reach a terminal status or the
// poll budget runs out.
type Tracker struct {
	config  Config
	logger  *telemetry.Logger
	metrics *telemetry.Metrics

	// sleep is replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the tracker's logger.
func WithLogger(logger *telemetry.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// WithMetrics sets the tracker's metrics collector.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(t *Tracker) {
		t.metrics = metrics
	}
}

// NewTracker creates a tracker with the given bounds.
func NewTracker(cfg Config, opts ...Option) *Tracker {
	t := &Tracker{
		config: cfg,
		sleep:  sleepCtx,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Poller reads work request statuses. *backend.Selector satisfies it
// through a thin adapter; tests supply their own.
type Poller interface {
	GetWorkRequest(ctx context.Context, workRequestID string) (*backend.WorkRequestInfo, error)
}

// PollerFunc adapts a function to the Poller interface.
type PollerFunc func(ctx context.Context, workRequestID string) (*backend.WorkRequestInfo, error)

// GetWorkRequest calls f.
func (f PollerFunc) GetWorkRequest(ctx context.Context, workRequestID string) (*backend.WorkRequestInfo, error) {
	return f(ctx, workRequestID)
}

// Await polls the work request until it reaches a terminal status, the
// poll budget is exhausted, or the context is cancelled.
//
// Budget exhaustion returns a Result with StatusUnknown and Exhausted
// set, and a nil error. Transport failures while polling do not consume
// the budget; after Config.TransportRetries consecutive failures the
// last transport error is returned.
func (t *Tracker) Await(ctx context.Context, poller Poller, workRequestID string) (*Result, error) {
	start := time.Now()
	interval := t.config.InitialInterval

	result := &Result{
		WorkRequestID: workRequestID,
		Status:        backend.WorkUnknown,
	}

	transportFailures := 0
	for result.Polls < t.config.MaxPolls {
		info, err := poller.GetWorkRequest(ctx, workRequestID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			transportFailures++
			if transportFailures > t.config.TransportRetries {
				return nil, err
			}
			if t.logger != nil {
				t.logger.WithWorkRequestID(workRequestID).WithError(err).
					Warnf("work request poll failed, retrying (%d/%d)", transportFailures, t.config.TransportRetries)
			}
			if serr := t.sleep(ctx, interval); serr != nil {
				return nil, serr
			}
			continue
		}
		transportFailures = 0

		result.Polls++
		result.Status = info.Status
		result.PercentComplete = info.PercentComplete
		t.metrics.RecordPoll(string(info.Status))

		if info.Status.IsTerminal() {
			result.Elapsed = time.Since(start)
			t.metrics.RecordWorkRequestWait(result.Elapsed)
			if t.logger != nil {
				t.logger.WithWorkRequestID(workRequestID).WithField("status", string(info.Status)).
					Debugf("work request settled after %d polls", result.Polls)
			}
			return result, nil
		}

		if result.Polls >= t.config.MaxPolls {
			break
		}

		if err := t.sleep(ctx, interval); err != nil {
			return nil, err
		}
		interval = t.nextInterval(interval)
	}

	// Budget spent without a terminal status. The request is still in
	// flight; report UNKNOWN rather than failure.
	result.Status = backend.WorkUnknown
	result.Exhausted = true
	result.Elapsed = time.Since(start)
	t.metrics.RecordWorkRequestWait(result.Elapsed)
	if t.logger != nil {
		t.logger.WithWorkRequestID(workRequestID).
			Warnf("work request still in flight after %d polls", result.Polls)
	}
	return result, nil
}

func (t *Tracker) nextInterval(current time.Duration) time.Duration {
	next := time.Duration(float64(current) * t.config.Multiplier)
	if next > t.config.MaxInterval {
		next = t.config.MaxInterval
	}
	return next
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
