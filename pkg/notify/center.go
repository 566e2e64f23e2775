// Package notify keeps the navigation notifications and fans them out to subscribers.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"carnav/pkg/model"
)

// EventRecorder stores notifications in the trip history.
type EventRecorder interface {
	AddEvent(event *model.TripEvent)
}

// Posted is a notification as delivered to subscribers.
type Posted struct {
	Channel      model.NotificationChannel `json:"channel"`
	Notification model.Notification        `json:"notification"`
	Time         time.Time                 `json:"time"`
}

// Center keeps the latest notification per channel.
type Center struct {
	mu       sync.RWMutex
	latest   map[model.NotificationChannel]Posted
	subs     map[int]func(Posted)
	nextID   int
	recorder EventRecorder
	now      func() time.Time
}

// NewCenter creates a Center. rec may be nil.
func NewCenter(rec EventRecorder) *Center {
	return &Center{
		latest:   make(map[model.NotificationChannel]Posted),
		subs:     make(map[int]func(Posted)),
		recorder: rec,
		now:      time.Now,
	}
}

// Notify posts n on ch, replacing the previous notification of that channel.
func (c *Center) Notify(ch model.NotificationChannel, n model.Notification) {
	p := Posted{Channel: ch, Notification: n, Time: c.now()}

	c.mu.Lock()
	c.latest[ch] = p
	subs := make([]func(Posted), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	if n.Alert {
		slog.Info("Notify: Alert", "channel", ch, "title", n.Title, "content", n.Content)
	} else {
		slog.Debug("Notify: Update", "channel", ch, "title", n.Title)
	}

	if c.recorder != nil && n.Alert {
		c.recorder.AddEvent(&model.TripEvent{
			Type:      model.EventNotification,
			Title:     n.Title,
			Summary:   n.Content,
			Timestamp: p.Time,
		})
	}

	for _, fn := range subs {
		fn(p)
	}
}

// Latest returns the last notification posted on ch.
func (c *Center) Latest(ch model.NotificationChannel) (Posted, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.latest[ch]
	return p, ok
}

// Subscribe registers fn for every future notification. fn runs on the
// poster's goroutine and must not block. The returned func unsubscribes.
func (c *Center) Subscribe(fn func(Posted)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Clear drops the latest notifications, as when navigation ends.
func (c *Center) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest = make(map[model.NotificationChannel]Posted)
}
