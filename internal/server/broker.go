package server

import (
	"encoding/json"
	"sync"
)

// SessionEvent is the payload published to session subscribers. It never
// carries correctness so exam streams reveal nothing early.
type SessionEvent struct {
	Type       string `json:"type"`
	SessionID  string `json:"sessionId"`
	QuestionID string `json:"questionId,omitempty"`
	Flagged    *bool  `json:"flagged,omitempty"`
	Answered   int    `json:"answered"`
	Total      int    `json:"total"`
	Auto       bool   `json:"auto,omitempty"`
}

const (
	EventAnswerRecorded   = "answer_recorded"
	EventFlagToggled      = "flag_toggled"
	EventSessionSubmitted = "session_submitted"
)

// Broker is an in-process pub/sub for session events, keyed by session ID.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for the session.
func (b *Broker) Subscribe(sessionID string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[chan []byte]struct{})
	}
	b.subs[sessionID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(sessionID string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[sessionID], ch)
	if len(b.subs[sessionID]) == 0 {
		delete(b.subs, sessionID)
	}
	b.mu.Unlock()
}

func (b *Broker) Publish(event SessionEvent) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs[event.SessionID] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
