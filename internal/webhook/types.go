// Package webhook delivers snapshot-change notifications to externally
// registered HTTP endpoints.
//
// Dispatch Flow:
//  1. The reference host calls Dispatcher.Dispatch(event) whenever
//     registry.Subscribe delivers a new snapshot.
//  2. Event is queued in a buffered channel (non-blocking, async).
//  3. A background worker delivers the event to every registered
//     endpoint, with exponential backoff retry.
//  4. Permanent failures are logged but never block processing of the
//     next event.
package webhook

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of change a webhook event reports.
type EventType string

// EventSnapshotChanged is the only event type konditional emits today:
// a namespace published a new snapshot via Load, Rollback, or DisableAll.
const EventSnapshotChanged EventType = "snapshot.changed"

// Event is the payload delivered to a registered webhook endpoint. Patch
// is the codec.Diff output between the previous and new snapshot, so
// subscribers see exactly what changed rather than the whole snapshot.
type Event struct {
	Type        EventType       `json:"event"`
	Timestamp   time.Time       `json:"timestamp"`
	NamespaceID string          `json:"namespaceId"`
	Patch       json.RawMessage `json:"patch"`
}

// NewSnapshotChangedEvent builds the event dispatched after a successful
// registry publish. patch is expected to be the raw output of codec.Diff.
func NewSnapshotChangedEvent(namespaceID string, patch []byte, at time.Time) Event {
	return Event{
		Type:        EventSnapshotChanged,
		Timestamp:   at,
		NamespaceID: namespaceID,
		Patch:       json.RawMessage(patch),
	}
}

// Endpoint is a registered webhook subscriber.
type Endpoint struct {
	URL        string
	Secret     string // HMAC signing secret, see SignDelivery
	MaxRetries int
	Timeout    time.Duration
}
