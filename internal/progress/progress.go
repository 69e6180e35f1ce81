// Package progress implements the session-scoped publish/subscribe channel
// that carries download progress messages to attached SSE listeners.
package progress

import (
	"context"
	"slices"
	"sync"
)

type item struct {
	text     string
	terminal bool
}

// Listener is a single-consumer inbox for one session's progress messages.
// Producers never block: the inbox grows as needed and delivery keeps
// publish order.
type Listener struct {
	mu    sync.Mutex
	queue []item
	wake  chan struct{}
}

func newListener() *Listener {
	return &Listener{wake: make(chan struct{}, 1)}
}

func (l *Listener) put(it item) {
	l.mu.Lock()
	l.queue = append(l.queue, it)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Receive blocks until the next message arrives or ctx is done. ok is false
// when the session has been closed and no further messages will follow.
func (l *Listener) Receive(ctx context.Context) (msg string, ok bool, err error) {
	for {
		l.mu.Lock()
		if len(l.queue) > 0 {
			it := l.queue[0]
			l.queue = l.queue[1:]
			l.mu.Unlock()
			if it.terminal {
				return "", false, nil
			}
			return it.text, true, nil
		}
		l.mu.Unlock()
		select {
		case <-l.wake:
		case <-ctx.Done():
			return "", false, ctx.Err()
		}
	}
}

// Channel fans progress messages out to every listener of a session and
// remembers which sessions have been closed so that late subscribers are
// told immediately instead of hanging.
type Channel struct {
	mu        sync.Mutex
	listeners map[string][]*Listener
	closed    map[string]struct{}
}

func NewChannel() *Channel {
	return &Channel{
		listeners: make(map[string][]*Listener),
		closed:    make(map[string]struct{}),
	}
}

// Register adds a new listener for the session. Registering against an
// already closed session returns a listener whose first receive reports
// closure; no session entry is created in that case.
func (c *Channel) Register(sessionID string) *Listener {
	l := newListener()
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.closed[sessionID]; ok {
		l.put(item{terminal: true})
		return l
	}
	c.listeners[sessionID] = append(c.listeners[sessionID], l)
	return l
}

// Unregister removes one listener from the session. Unknown listeners and
// unknown sessions are no-ops. Removing the last listener drops the session
// entry so churn does not grow the map.
func (c *Channel) Unregister(sessionID string, l *Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ls, ok := c.listeners[sessionID]
	if !ok {
		return
	}
	for i, cur := range ls {
		if cur == l {
			ls = append(ls[:i], ls[i+1:]...)
			break
		}
	}
	if len(ls) == 0 {
		delete(c.listeners, sessionID)
		return
	}
	c.listeners[sessionID] = ls
}

// Publish delivers msg to every listener currently registered for the
// session. Messages are not buffered for listeners that are not attached
// yet. Publishing to a closed session reopens it.
func (c *Channel) Publish(sessionID, msg string) {
	c.mu.Lock()
	delete(c.closed, sessionID)
	ls := slices.Clone(c.listeners[sessionID])
	c.mu.Unlock()
	for _, l := range ls {
		l.put(item{text: msg})
	}
}

// Close wakes every listener of the session with a terminal marker and
// marks the session closed. Closing an already closed or never opened
// session is safe.
func (c *Channel) Close(sessionID string) {
	c.mu.Lock()
	ls := c.listeners[sessionID]
	delete(c.listeners, sessionID)
	c.closed[sessionID] = struct{}{}
	c.mu.Unlock()
	for _, l := range ls {
		l.put(item{terminal: true})
	}
}

// Listeners reports how many listeners are currently registered for the
// session.
func (c *Channel) Listeners(sessionID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners[sessionID])
}
