package client

import (
	"sync"
	"time"
)

// DefaultNotificationTTL is how long a notification without an action stays visible.
const DefaultNotificationTTL = 5 * time.Second

type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationInfo    NotificationType = "info"
	NotificationError   NotificationType = "error"
)

// Notification is a message shown to the user. Notifications with an Action
// stay until removed.
type Notification struct {
	ID        int64
	Type      NotificationType
	Title     string
	Message   string
	Action    string
	Timestamp time.Time
}

// notificationCenter keeps the live notifications, newest first.
type notificationCenter struct {
	mu     sync.Mutex
	ttl    time.Duration
	nextID int64
	items  []Notification
	timers map[int64]*time.Timer
}

func newNotificationCenter(ttl time.Duration) *notificationCenter {
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}
	return &notificationCenter{ttl: ttl, timers: make(map[int64]*time.Timer)}
}

func (nc *notificationCenter) add(n Notification) int64 {
	nc.mu.Lock()
	defer nc.mu.Unlock()

	nc.nextID++
	n.ID = nc.nextID
	n.Timestamp = time.Now()
	nc.items = append([]Notification{n}, nc.items...)

	if n.Action == "" {
		id := n.ID
		nc.timers[id] = time.AfterFunc(nc.ttl, func() { nc.remove(id) })
	}
	return n.ID
}

func (nc *notificationCenter) remove(id int64) {
	nc.mu.Lock()
	defer nc.mu.Unlock()

	if t, ok := nc.timers[id]; ok {
		t.Stop()
		delete(nc.timers, id)
	}
	for i, n := range nc.items {
		if n.ID == id {
			nc.items = append(nc.items[:i:i], nc.items[i+1:]...)
			return
		}
	}
}

func (nc *notificationCenter) clear() {
	nc.mu.Lock()
	defer nc.mu.Unlock()

	for id, t := range nc.timers {
		t.Stop()
		delete(nc.timers, id)
	}
	nc.items = nil
}

func (nc *notificationCenter) list() []Notification {
	nc.mu.Lock()
	defer nc.mu.Unlock()

	out := make([]Notification, len(nc.items))
	copy(out, nc.items)
	return out
}
