package models

import "time"

// Activity event types.
const (
	EventSignUp        = "SIGN_UP"
	EventSignIn        = "SIGN_IN"
	EventSignOut       = "SIGN_OUT"
	EventPostCreated   = "POST_CREATED"
	EventFollow        = "FOLLOW"
	EventUnfollow      = "UNFOLLOW"
	EventProfileEdit   = "PROFILE_EDIT"
	EventCompensation  = "COMPENSATION"
	EventOrphanCleared = "ORPHAN_CLEARED"
)

// ActivityEvent is a single activity log entry.
type ActivityEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	UserID      string    `json:"user_id,omitempty"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
