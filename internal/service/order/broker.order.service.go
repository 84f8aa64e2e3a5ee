package order

import "sync"

const subscriptionBuffer = 8

type Subscription struct {
	C      <-chan SessionView
	cancel func()
}

func (s *Subscription) Close() {
	s.cancel()
}

// broker fans session snapshots out to live subscribers. A subscriber that
// falls behind loses its oldest queued snapshots; the latest one always lands.
type broker struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]chan SessionView
}

func newBroker() *broker {
	return &broker{subs: make(map[string]map[int]chan SessionView)}
}

func (b *broker) subscribe(id string, initial SessionView) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan SessionView, subscriptionBuffer)
	ch <- initial
	key := b.next
	b.next++
	if b.subs[id] == nil {
		b.subs[id] = make(map[int]chan SessionView)
	}
	b.subs[id][key] = ch

	var once sync.Once
	return &Subscription{
		C: ch,
		cancel: func() {
			once.Do(func() {
				b.mu.Lock()
				defer b.mu.Unlock()
				if subs, ok := b.subs[id]; ok {
					if c, ok := subs[key]; ok {
						delete(subs, key)
						close(c)
					}
					if len(subs) == 0 {
						delete(b.subs, id)
					}
				}
			})
		},
	}
}

func (b *broker) publish(view SessionView) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs[view.ID] {
		select {
		case ch <- view:
		default:
			// Only publish sends, under b.mu, so one free slot is enough.
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
}
