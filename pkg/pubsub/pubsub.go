package pubsub

import (
	"context"
	"encoding/json"
	"time"
)

// Topics published by an editing session
const (
	TopicProject  = "project"  // Latest ProjectSummary, replayed to new subscribers
	TopicActivity = "activity" // Recent ActivityEntry records
)

// Event types on TopicProject
const (
	EventChanged  = "changed"  // An operation modified the model
	EventReloaded = "reloaded" // The project file was changed on disk and reloaded
	EventSaved    = "saved"    // The model was written to the project file
)

// EventApplied is the only event type on TopicActivity
const EventApplied = "applied"

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // Subscription topic (e.g., "project")
	Type    string          `json:"type"`    // Event type (e.g., "changed", "reloaded")
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Version number for ordering
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic
	// Context cancellation will close the subscription
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data any) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// ProjectSummary is the payload of TopicProject events. Clients refetch the
// state when Revision moves.
type ProjectSummary struct {
	Name       string `json:"name"`
	Revision   int    `json:"revision"`
	Nodes      int    `json:"nodes"`
	Edges      int    `json:"edges"`
	Properties int    `json:"properties"`
	Lists      int    `json:"lists"`
	CanUndo    bool   `json:"canUndo"`
	CanRedo    bool   `json:"canRedo"`
	Dirty      bool   `json:"dirty"` // Changes not yet written to the project file
}

// ActivityEntry records one applied operation
type ActivityEntry struct {
	Op       string    `json:"op"`
	Revision int       `json:"revision"`
	Time     time.Time `json:"time"`
	Changes  string    `json:"changes,omitempty"` // Diff summary of a reload
}

// PublishSummary publishes s on TopicProject
func PublishSummary(p Publisher, eventType string, s ProjectSummary) error {
	return p.Publish(TopicProject, eventType, s)
}

// PublishActivity publishes e on TopicActivity
func PublishActivity(p Publisher, e ActivityEntry) error {
	return p.Publish(TopicActivity, EventApplied, e)
}
