package app

import (
	"github.com/sitelens/sitelens/internal/model"
)

// ScanEventType distinguishes event payloads on the scan stream.
type ScanEventType string

const (
	ScanEventStatus  ScanEventType = "status"
	ScanEventSection ScanEventType = "section"
)

// ScanEvent is one update on a scan's event stream. Status events mark
// lifecycle transitions; section events mark a sub-audit landing in the
// record.
type ScanEvent struct {
	ScanID string        `json:"scan_id"`
	Type   ScanEventType `json:"type"`

	Status  model.Status `json:"status,omitempty"`
	Section string       `json:"section,omitempty"`
	Error   string       `json:"error,omitempty"`
}

func (o *Orchestrator) openEvents(scanID string) {
	o.eventsMu.Lock()
	defer o.eventsMu.Unlock()
	o.events[scanID] = make(chan ScanEvent, 16)
}

// Events returns the event channel for a scan, if the scan exists and has
// not reached a terminal state yet.
func (o *Orchestrator) Events(scanID string) (<-chan ScanEvent, bool) {
	o.eventsMu.Lock()
	defer o.eventsMu.Unlock()
	ch, ok := o.events[scanID]
	return ch, ok
}

func (o *Orchestrator) emitEvent(scanID string, ev ScanEvent) {
	o.eventsMu.Lock()
	ch, ok := o.events[scanID]
	o.eventsMu.Unlock()
	if !ok {
		return
	}
	// Non-blocking send; drop if the buffer is full.
	select {
	case ch <- ev:
	default:
	}
}

// closeEvents closes and forgets the scan's channel so websocket readers
// terminate after the terminal event.
func (o *Orchestrator) closeEvents(scanID string) {
	o.eventsMu.Lock()
	ch, ok := o.events[scanID]
	delete(o.events, scanID)
	o.eventsMu.Unlock()
	if ok {
		close(ch)
	}
}
