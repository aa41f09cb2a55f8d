// Package events defines the payloads emitted when an activity roster changes.
package events

import "time"

// TypeRosterChanged is carried in the event_type Kafka header of RosterChanged messages.
const TypeRosterChanged = "activity.roster_changed"

// RosterAction names the mutation applied to a roster.
type RosterAction string

const (
	RosterActionEnrolled  RosterAction = "enrolled"
	RosterActionWithdrawn RosterAction = "withdrawn"
)

// RosterChanged is emitted after a participant joins or leaves an activity.
type RosterChanged struct {
	EventID    string       `json:"event_id"`
	Activity   string       `json:"activity"`
	Email      string       `json:"email"`
	Action     RosterAction `json:"action"`
	RosterSize int          `json:"roster_size"`
	OccurredAt time.Time    `json:"occurred_at"`
}
