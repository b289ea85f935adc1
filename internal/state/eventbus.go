package state

import (
	"sync"
)

type EventType int

const (
	EVENT_CHAN_LENGTH = 64
)

const (
	EventUnkown EventType = iota
	Deposit
	DepositToSymmio
	WithdrawRequest
	WithdrawRequestAccepted
	WithdrawClaimed
	Paused
	Unpaused
	RoleGranted
	RoleRevoked
	ParamsUpdated
)

var eventNames = [...]string{
	"EventUnkown", "Deposit", "DepositToSymmio", "WithdrawRequestEvent", "WithdrawRequestAcceptedEvent",
	"WithdrawClaimedEvent", "Paused", "Unpaused", "RoleGranted", "RoleRevoked", "ParamsUpdated",
}

func (e EventType) String() string {
	if e < 0 || int(e) >= len(eventNames) {
		return eventNames[EventUnkown]
	}
	return eventNames[e]
}

// AllEvents lists every vault event type
func AllEvents() []EventType {
	return []EventType{Deposit, DepositToSymmio, WithdrawRequest, WithdrawRequestAccepted, WithdrawClaimed,
		Paused, Unpaused, RoleGranted, RoleRevoked, ParamsUpdated}
}

// EventBus fans vault events out to subscriber channels. Publish never blocks:
// a subscriber whose buffer is full is dropped.
type EventBus struct {
	subscribers map[EventType][]chan interface{}
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]chan interface{}),
	}
}

func (eb *EventBus) Subscribe(eventType EventType, ch chan interface{}) {
	if ch == nil {
		panic("channel == nil")
	}
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
}

// SubscribeAll registers ch for every vault event type
func (eb *EventBus) SubscribeAll(ch chan interface{}) {
	for _, eventType := range AllEvents() {
		eb.Subscribe(eventType, ch)
	}
}

func (eb *EventBus) Publish(eventType EventType, data interface{}) {
	eb.mu.RLock()
	subscribers, ok := eb.subscribers[eventType]
	if !ok {
		eb.mu.RUnlock()
		return
	}
	originLen := len(subscribers)
	dropped := make(map[chan interface{}]bool)
	for _, ch := range subscribers {
		select {
		case ch <- data:
		default:
			dropped[ch] = true
		}
	}
	eb.mu.RUnlock()

	if len(dropped) == 0 {
		return
	}
	eb.mu.Lock()
	defer eb.mu.Unlock()
	if originLen != len(eb.subscribers[eventType]) {
		// subscribers changed meanwhile, keep them and retry on the next publish
		return
	}
	var kept []chan interface{}
	for _, ch := range eb.subscribers[eventType] {
		if !dropped[ch] {
			kept = append(kept, ch)
		}
	}
	eb.setSubscribers(eventType, kept)
}

func (eb *EventBus) Unsubscribe(eventType EventType, ch chan interface{}) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	subscribers, ok := eb.subscribers[eventType]
	if !ok {
		return
	}
	kept := make([]chan interface{}, 0, len(subscribers))
	for _, subscriber := range subscribers {
		if subscriber != ch {
			kept = append(kept, subscriber)
		}
	}
	eb.setSubscribers(eventType, kept)
}

// UnsubscribeAll removes ch from every event type
func (eb *EventBus) UnsubscribeAll(ch chan interface{}) {
	for _, eventType := range AllEvents() {
		eb.Unsubscribe(eventType, ch)
	}
}

func (eb *EventBus) SubscriberCount(eventType EventType) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subscribers[eventType])
}

func (eb *EventBus) setSubscribers(eventType EventType, subscribers []chan interface{}) {
	if len(subscribers) == 0 {
		delete(eb.subscribers, eventType)
		return
	}
	eb.subscribers[eventType] = subscribers
}
