package engine

import (
	"sync"

	"github.com/genricoloni/bingwall/internal/domain"
)

// publisher fans snapshots out to subscribers. Each subscriber channel holds
// at most one value; a newer snapshot replaces an unread older one.
type publisher struct {
	mu     sync.Mutex
	subs   map[chan *domain.WallpaperState]struct{}
	closed bool
}

func newPublisher() *publisher {
	return &publisher{subs: make(map[chan *domain.WallpaperState]struct{})}
}

// subscribe registers a channel primed with current(). current is read under
// the publisher lock so no publish can slip between the read and the registration.
func (p *publisher) subscribe(current func() *domain.WallpaperState) (<-chan *domain.WallpaperState, func()) {
	ch := make(chan *domain.WallpaperState, 1)

	p.mu.Lock()
	defer p.mu.Unlock()

	ch <- current()
	if p.closed {
		close(ch)
		return ch, func() {}
	}
	p.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if _, ok := p.subs[ch]; ok {
				delete(p.subs, ch)
				close(ch)
			}
		})
	}
}

func (p *publisher) publish(state *domain.WallpaperState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for ch := range p.subs {
		select {
		case <-ch:
		default:
		}
		ch <- state
	}
}

// close ends every subscription; later subscribers get the last value and a closed channel
func (p *publisher) close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	for ch := range p.subs {
		delete(p.subs, ch)
		close(ch)
	}
}
