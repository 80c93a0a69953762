package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/medportal/medportal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedReader replays a fixed sequence of statuses/errors, then keeps
// returning the last entry
type scriptedReader struct {
	mu       sync.Mutex
	statuses []string
	errs     []error
	calls    int
}

func (r *scriptedReader) CheckStatus(ctx context.Context, requestID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.calls
	if i >= len(r.statuses) {
		i = len(r.statuses) - 1
	}
	r.calls++

	return r.statuses[i], r.errs[i]
}

func (r *scriptedReader) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestWaitStopsOnTerminalStatus(t *testing.T) {
	reader := &scriptedReader{
		statuses: []string{models.PENDING_REQUEST, models.PENDING_REQUEST, models.APPROVED_REQUEST},
		errs:     []error{nil, nil, nil},
	}
	poller := NewWithIntervals(reader, time.Millisecond, 4*time.Millisecond, time.Second)

	status, err := poller.Wait(context.Background(), "emerg-1")
	require.NoError(t, err)
	assert.Equal(t, models.APPROVED_REQUEST, status)

	// Once a terminal status is observed, the poller must never poll again
	calls := reader.callCount()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, reader.callCount())
}

func TestWaitSwallowsReadErrors(t *testing.T) {
	reader := &scriptedReader{
		statuses: []string{"", models.DENIED_REQUEST},
		errs:     []error{errors.New("connection reset"), nil},
	}
	poller := NewWithIntervals(reader, time.Millisecond, 4*time.Millisecond, time.Second)

	status, err := poller.Wait(context.Background(), "emerg-2")
	require.NoError(t, err)
	assert.Equal(t, models.DENIED_REQUEST, status)
}

func TestWaitTimesOutWhileStillPending(t *testing.T) {
	reader := &scriptedReader{
		statuses: []string{models.PENDING_REQUEST},
		errs:     []error{nil},
	}
	poller := NewWithIntervals(reader, time.Millisecond, 2*time.Millisecond, 20*time.Millisecond)

	status, err := poller.Wait(context.Background(), "emerg-3")
	assert.ErrorIs(t, err, ErrStillPending)
	assert.Equal(t, models.PENDING_REQUEST, status)
}

func TestWaitHonoursCancellation(t *testing.T) {
	reader := &scriptedReader{
		statuses: []string{models.PENDING_REQUEST},
		errs:     []error{nil},
	}
	poller := NewWithIntervals(reader, time.Millisecond, 2*time.Millisecond, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := poller.Wait(ctx, "emerg-4")
	assert.ErrorIs(t, err, context.Canceled)
}
