package poller

import (
	"context"
	"errors"
	"time"

	"github.com/medportal/medportal/server/logger"
	"github.com/medportal/medportal/server/models"
)

const (
	DefaultBaseInterval = 5 * time.Second
	DefaultMaxInterval  = 40 * time.Second
	DefaultMaxWait      = 10 * time.Minute
)

// ErrStillPending is returned when the request stayed pending for the whole
// wait window. The caller decides whether to retry or give up.
var ErrStillPending = errors.New("emergency request still pending")

var logg = logger.NewLogger()

// StatusReader reads the current status of an emergency request
type StatusReader interface {
	CheckStatus(ctx context.Context, requestID string) (string, error)
}

// Poller watches a single emergency request until it leaves 'pending'.
// Attempts are spaced with bounded exponential backoff; read errors are
// logged and the loop keeps going.
type Poller struct {
	reader       StatusReader
	baseInterval time.Duration
	maxInterval  time.Duration
	maxWait      time.Duration
}

func New(reader StatusReader) *Poller {
	return &Poller{
		reader:       reader,
		baseInterval: DefaultBaseInterval,
		maxInterval:  DefaultMaxInterval,
		maxWait:      DefaultMaxWait,
	}
}

// NewWithIntervals is New with explicit timing, mostly for tests
func NewWithIntervals(reader StatusReader, baseInterval, maxInterval, maxWait time.Duration) *Poller {
	return &Poller{
		reader:       reader,
		baseInterval: baseInterval,
		maxInterval:  maxInterval,
		maxWait:      maxWait,
	}
}

// Wait blocks until the request's status leaves 'pending' and returns the
// terminal status. It returns ErrStillPending once maxWait elapses, or
// ctx.Err() when cancelled. Once a terminal status is observed the poller
// never polls again.
func (p *Poller) Wait(ctx context.Context, requestID string) (string, error) {
	interval := p.baseInterval
	deadline := time.Now().Add(p.maxWait)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return models.PENDING_REQUEST, ctx.Err()
		case <-ticker.C:
			status, err := p.reader.CheckStatus(ctx, requestID)
			if err != nil {
				// Swallow the error; a blip shouldn't end the wait
				logg.Warnf("poll attempt for %v failed: %v", requestID, err)
			} else if status != models.PENDING_REQUEST {
				return status, nil
			}

			if time.Now().After(deadline) {
				return models.PENDING_REQUEST, ErrStillPending
			}

			interval *= 2
			if interval > p.maxInterval {
				interval = p.maxInterval
			}
			ticker.Reset(interval)
		}
	}
}
