package backend

import "sync"

type eventMsg struct {
	event   AuthEvent
	session *Session
}

// dispatcher fans auth events out to registered handlers. A single goroutine
// drains the queue, so handlers observe events one at a time, in order.
type dispatcher struct {
	mu       sync.Mutex
	handlers map[int]Handler
	next     int
	queue    chan eventMsg
	done     chan struct{}
	stopped  bool
	wg       sync.WaitGroup
}

func newDispatcher() *dispatcher {
	d := &dispatcher{
		handlers: make(map[int]Handler),
		queue:    make(chan eventMsg, 16),
		done:     make(chan struct{}),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case msg := <-d.queue:
			d.deliver(msg)
		case <-d.done:
			// Drain what is already queued, then stop.
			for {
				select {
				case msg := <-d.queue:
					d.deliver(msg)
				default:
					return
				}
			}
		}
	}
}

// deliver invokes handlers under the lock, so Unsubscribe returning
// guarantees no further delivery. Handlers must not call Unsubscribe or
// subscribe from within the callback.
func (d *dispatcher) deliver(msg eventMsg) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, h := range d.handlers {
		h(msg.event, msg.session)
	}
}

func (d *dispatcher) subscribe(h Handler) Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.next
	d.next++
	d.handlers[id] = h
	return &subscription{d: d, id: id}
}

func (d *dispatcher) emit(event AuthEvent, session *Session) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	select {
	case d.queue <- eventMsg{event: event, session: session}:
	case <-d.done:
	}
}

func (d *dispatcher) close() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	d.mu.Unlock()

	close(d.done)
	d.wg.Wait()
}

type subscription struct {
	d    *dispatcher
	id   int
	once sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.d.mu.Lock()
		delete(s.d.handlers, s.id)
		s.d.mu.Unlock()
	})
}
