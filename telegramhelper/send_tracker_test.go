package telegramhelper

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSendTrackerResolveAfterExpect(t *testing.T) {
	tr := newSendTracker()
	done := tr.expect(1)

	tr.resolve(1, nil)
	assert.NoError(t, <-done)

	waiters, early := tr.pending()
	assert.Zero(t, waiters)
	assert.Zero(t, early)
}

func TestSendTrackerResolveBeforeExpect(t *testing.T) {
	tr := newSendTracker()
	failure := errors.New("failed")

	tr.resolve(2, failure)
	_, early := tr.pending()
	assert.Equal(t, 1, early)

	assert.ErrorIs(t, <-tr.expect(2), failure)
	_, early = tr.pending()
	assert.Zero(t, early)
}

func TestSendTrackerPrunesStaleResults(t *testing.T) {
	tr := newSendTracker()
	now := time.Now()
	tr.now = func() time.Time { return now }

	tr.resolve(1, nil)
	tr.resolve(2, nil)

	now = now.Add(earlyResultTTL + time.Second)
	tr.resolve(3, nil)

	_, early := tr.pending()
	assert.Equal(t, 1, early, "only the fresh result survives")
}

func TestSendTrackerForget(t *testing.T) {
	tr := newSendTracker()
	tr.expect(4)
	tr.forget(4)

	waiters, _ := tr.pending()
	assert.Zero(t, waiters)

	// A late confirmation is parked, not delivered to the dropped waiter.
	tr.resolve(4, nil)
	_, early := tr.pending()
	assert.Equal(t, 1, early)
}
