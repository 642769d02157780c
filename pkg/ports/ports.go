// Package ports provides the synchronous message channels an application
// runtime and the persistence bridge talk over.
//
// A Port delivers every Send to its subscribers on the sender's goroutine, in
// subscription order, before Send returns. That keeps the handle-to-completion
// ordering of a single-threaded event loop: a load-request sent after a save
// always observes that save.
package ports

import "sync"

// Port is a named fan-out channel carrying values of type T.
type Port[T any] struct {
	name string

	mu     sync.RWMutex
	nextID int
	subs   []subscription[T]
}

type subscription[T any] struct {
	id int
	fn func(T)
}

// NewPort returns an empty port.
func NewPort[T any](name string) *Port[T] {
	return &Port[T]{name: name}
}

// Name returns the port name.
func (p *Port[T]) Name() string {
	return p.name
}

// Subscribe registers fn and returns a function removing it again. Nil
// handlers are ignored.
func (p *Port[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.subs = append(p.subs, subscription[T]{id: id, fn: fn})
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { p.remove(id) })
	}
}

// Send delivers value to every current subscriber. Subscribers added or
// removed during delivery take effect on the next Send.
func (p *Port[T]) Send(value T) {
	p.mu.RLock()
	subs := make([]subscription[T], len(p.subs))
	copy(subs, p.subs)
	p.mu.RUnlock()

	for _, sub := range subs {
		sub.fn(value)
	}
}

// Subscribers reports how many handlers are registered.
func (p *Port[T]) Subscribers() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs)
}

func (p *Port[T]) remove(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, sub := range p.subs {
		if sub.id == id {
			p.subs = append(p.subs[:i], p.subs[i+1:]...)
			return
		}
	}
}

// Port names used by Set, matching the names an application runtime binds.
const (
	SaveName         = "saveToStorage"
	LoadRequestName  = "doLoadFromStorage"
	LoadResponseName = "loadFromStorage"
	ErrorsName       = "storageError"
)

// Set groups the three ports of the save/load protocol.
//
// Save and LoadRequest flow from the application to the host. LoadResponse
// flows back; a nil value on it is the absence marker. Errors carries host
// failures that have no response to ride on, such as a failed save.
type Set struct {
	Save         *Port[any]
	LoadRequest  *Port[struct{}]
	LoadResponse *Port[any]
	Errors       *Port[error]
}

// NewSet returns a Set with all four ports.
func NewSet() *Set {
	return &Set{
		Save:         NewPort[any](SaveName),
		LoadRequest:  NewPort[struct{}](LoadRequestName),
		LoadResponse: NewPort[any](LoadResponseName),
		Errors:       NewPort[error](ErrorsName),
	}
}
