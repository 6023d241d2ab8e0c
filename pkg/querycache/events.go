package querycache

// EventKind identifies a state change of a key.
type EventKind int

const (
	EventPending EventKind = iota + 1
	EventResolved
	EventErrored
	EventWritten
	EventInvalidated
	EventRemoved
)

func (k EventKind) String() string {
	switch k {
	case EventPending:
		return "pending"
	case EventResolved:
		return "resolved"
	case EventErrored:
		return "errored"
	case EventWritten:
		return "written"
	case EventInvalidated:
		return "invalidated"
	case EventRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event tells a subscriber that key changed. Subscribers re-query the cache.
type Event struct {
	Key  string
	Kind EventKind
}

// Listener receives events synchronously on the goroutine that caused them.
// It must not block.
type Listener func(Event)

// Subscribe registers fn for events of key. An empty key subscribes to all
// keys. The returned func removes the subscription.
func (c *Cache) Subscribe(key string, fn Listener) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	c.mu.Lock()
	c.nextSubID++
	id := c.nextSubID
	if c.subs[key] == nil {
		c.subs[key] = make(map[uint64]Listener)
	}
	c.subs[key][id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if m := c.subs[key]; m != nil {
			delete(m, id)
			if len(m) == 0 {
				delete(c.subs, key)
			}
		}
	}
}

func (c *Cache) notify(ev Event) {
	c.mu.Lock()
	listeners := make([]Listener, 0, len(c.subs[ev.Key])+len(c.subs[""]))
	for _, fn := range c.subs[ev.Key] {
		listeners = append(listeners, fn)
	}
	if ev.Key != "" {
		for _, fn := range c.subs[""] {
			listeners = append(listeners, fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
}
