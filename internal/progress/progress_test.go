package progress

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// drain reads messages until the terminal marker.
func drain(t *testing.T, l *Listener) []string {
	t.Helper()
	var msgs []string
	for {
		msg, ok, err := l.Receive(recvCtx(t))
		require.NoError(t, err)
		if !ok {
			return msgs
		}
		msgs = append(msgs, msg)
	}
}

func TestPublishReachesAllListeners(t *testing.T) {
	c := NewChannel()
	l1 := c.Register("s1")
	l2 := c.Register("s1")

	c.Publish("s1", "Download progress: 10%")
	c.Close("s1")

	assert.Equal(t, []string{"Download progress: 10%"}, drain(t, l1))
	assert.Equal(t, []string{"Download progress: 10%"}, drain(t, l2))
}

func TestNoReplayForLateListeners(t *testing.T) {
	c := NewChannel()
	early := c.Register("s1")
	c.Publish("s1", "first")

	late := c.Register("s1")
	c.Publish("s1", "second")
	c.Close("s1")

	assert.Equal(t, []string{"first", "second"}, drain(t, early))
	assert.Equal(t, []string{"second"}, drain(t, late))
}

func TestPerListenerOrder(t *testing.T) {
	c := NewChannel()
	l := c.Register("s1")

	var want []string
	for i := 0; i < 50; i++ {
		msg := fmt.Sprintf("msg-%d", i)
		want = append(want, msg)
		c.Publish("s1", msg)
	}
	c.Close("s1")

	assert.Equal(t, want, drain(t, l))
}

func TestRegisterAfterClose(t *testing.T) {
	c := NewChannel()
	c.Close("s1")

	l := c.Register("s1")
	_, ok, err := l.Receive(recvCtx(t))
	require.NoError(t, err)
	assert.False(t, ok, "first receive after close must be the terminal marker")

	// no session entry was created for the late registration
	assert.Zero(t, c.Listeners("s1"))
}

func TestPublishReopensClosedSession(t *testing.T) {
	c := NewChannel()
	c.Close("s1")
	c.Publish("s1", "dropped, nobody is listening")

	l := c.Register("s1")
	c.Publish("s1", "after reopen")
	c.Close("s1")

	assert.Equal(t, []string{"after reopen"}, drain(t, l))
}

func TestUnregisterStopsDelivery(t *testing.T) {
	c := NewChannel()
	l1 := c.Register("s1")
	l2 := c.Register("s1")

	c.Unregister("s1", l1)
	c.Publish("s1", "only l2")
	c.Close("s1")

	assert.Equal(t, []string{"only l2"}, drain(t, l2))

	l1.mu.Lock()
	defer l1.mu.Unlock()
	assert.Empty(t, l1.queue, "removed listener must not receive anything")
}

func TestUnregisterLastListenerFreesSession(t *testing.T) {
	c := NewChannel()
	l := c.Register("s1")
	c.Unregister("s1", l)

	c.mu.Lock()
	_, open := c.listeners["s1"]
	_, closed := c.closed["s1"]
	c.mu.Unlock()
	assert.False(t, open, "session entry must be dropped with its last listener")
	assert.False(t, closed, "unregister must not close the session")
}

func TestUnregisterUnknownIsNoop(t *testing.T) {
	c := NewChannel()
	l := c.Register("s1")
	c.Unregister("s2", l)
	c.Unregister("s1", newListener())
	assert.Equal(t, 1, c.Listeners("s1"))
}

func TestCloseIsIdempotent(t *testing.T) {
	c := NewChannel()
	l := c.Register("s1")
	c.Close("s1")
	c.Close("s1")

	_, ok, err := l.Receive(recvCtx(t))
	require.NoError(t, err)
	assert.False(t, ok)

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.queue, "double close must not enqueue a second marker")
}

func TestReceiveHonorsContext(t *testing.T) {
	c := NewChannel()
	l := c.Register("s1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := l.Receive(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentPublishers(t *testing.T) {
	const publishers = 10
	const perPublisher = 100

	c := NewChannel()
	l := c.Register("s1")

	var wg sync.WaitGroup
	for p := 0; p < publishers; p++ {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perPublisher; i++ {
				c.Publish("s1", fmt.Sprintf("p%d-%d", p, i))
			}
		}()
	}

	done := make(chan []string)
	go func() { done <- drain(t, l) }()

	wg.Wait()
	c.Close("s1")

	msgs := <-done
	assert.Len(t, msgs, publishers*perPublisher)
}
