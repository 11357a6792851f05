package telegramhelper

import (
	"sync"
	"time"
)

// earlyResultTTL bounds how long an unclaimed send result is kept. Text
// replies also produce send results and nobody waits for those.
const earlyResultTTL = 5 * time.Minute

type sendResult struct {
	err error
	at  time.Time
}

// sendTracker matches TDLib send confirmations with the goroutine waiting for
// them. A confirmation can arrive before the sender starts waiting, so
// unclaimed results are parked for a while.
type sendTracker struct {
	mu      sync.Mutex
	waiters map[int64]chan error
	early   map[int64]sendResult
	now     func() time.Time
}

func newSendTracker() *sendTracker {
	return &sendTracker{
		waiters: make(map[int64]chan error),
		early:   make(map[int64]sendResult),
		now:     time.Now,
	}
}

// expect returns a channel that receives the outcome of the message with the
// temporary id messageID.
func (t *sendTracker) expect(messageID int64) <-chan error {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan error, 1)
	if res, ok := t.early[messageID]; ok {
		delete(t.early, messageID)
		ch <- res.err
		return ch
	}
	t.waiters[messageID] = ch
	return ch
}

// resolve records the outcome for messageID.
func (t *sendTracker) resolve(messageID int64, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ch, ok := t.waiters[messageID]; ok {
		delete(t.waiters, messageID)
		ch <- err
		return
	}

	now := t.now()
	for id, res := range t.early {
		if now.Sub(res.at) > earlyResultTTL {
			delete(t.early, id)
		}
	}
	t.early[messageID] = sendResult{err: err, at: now}
}

// forget drops a waiter that gave up.
func (t *sendTracker) forget(messageID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.waiters, messageID)
}

// pending reports how many waiters and parked results exist.
func (t *sendTracker) pending() (waiters, early int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.waiters), len(t.early)
}
