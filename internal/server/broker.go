package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/playgeo/geohunt/internal/game"
)

// PhaseEvent is the payload pushed to SSE subscribers on phase transitions.
type PhaseEvent struct {
	Type       string     `json:"type"` // phase_activated | phase_solved
	PhaseID    string     `json:"phaseId"`
	HintText   string     `json:"hintText,omitempty"`
	WinnerName string     `json:"winnerName,omitempty"`
	SolvedAt   *time.Time `json:"solvedAt,omitempty"`
}

// Broker is an in-process pub/sub for phase events. It implements
// game.Events, so the lifecycle publishes through it directly.
type Broker struct {
	mu   sync.RWMutex
	subs map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[chan []byte]struct{})}
}

// Subscribe returns a channel receiving JSON-encoded phase events.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(ch chan []byte) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

func (b *Broker) PhaseActivated(p game.Phase) {
	b.publish(PhaseEvent{Type: "phase_activated", PhaseID: p.ID, HintText: p.HintText})
}

func (b *Broker) PhaseSolved(h game.History) {
	solvedAt := h.SolvedAt
	b.publish(PhaseEvent{
		Type:       "phase_solved",
		PhaseID:    h.PhaseID,
		WinnerName: h.WinnerName,
		SolvedAt:   &solvedAt,
	})
}

func (b *Broker) publish(event PhaseEvent) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
