package notification

import (
	"time"
)

// Role tags a class of recipients addressable by topic broadcast.
type Role string

const (
	// RoleResident covers residents (and the legacy "user" topic tag).
	RoleResident Role = "resident"
	// RoleWorker covers maintenance and service staff.
	RoleWorker Role = "worker"
	// RoleSecurity covers security guards.
	RoleSecurity Role = "security"
	// RoleAuthority covers the building authority.
	RoleAuthority Role = "authority"
	// RoleEveryone unions all broadcastable roles.
	RoleEveryone Role = "everyone"
)

// TargetMode selects how a dispatch addresses its recipients.
type TargetMode string

const (
	// ModeTopic addresses recipients with a boolean topic expression
	// resolved by the push provider.
	ModeTopic TargetMode = "topic"
	// ModeTokenSet addresses explicit device tokens.
	ModeTokenSet TargetMode = "token-set"
)

// Target is the polymorphic addressing of one push call: either a topic
// expression or an explicit token set. Constructed per dispatch, never
// persisted.
type Target struct {
	// Mode selects which of the addressing fields applies.
	Mode TargetMode
	// Expression is the boolean topic expression for ModeTopic.
	Expression string
	// Tokens are the device tokens for ModeTokenSet. Duplicates are the
	// caller's responsibility to have removed.
	Tokens []string
}

// TopicTarget builds a topic-expression target.
func TopicTarget(expression string) Target {
	return Target{
		Mode:       ModeTopic,
		Expression: expression,
	}
}

// TokenTarget builds a token-set target with duplicates removed and order
// preserved.
func TokenTarget(tokens ...string) Target {
	seen := make(map[string]struct{}, len(tokens))
	unique := make([]string, 0, len(tokens))

	for _, token := range tokens {
		if token == "" {
			continue
		}

		if _, ok := seen[token]; ok {
			continue
		}

		seen[token] = struct{}{}
		unique = append(unique, token)
	}

	return Target{
		Mode:   ModeTokenSet,
		Tokens: unique,
	}
}

// Payload is the provider-facing notification content. Display fields and
// data fields are both populated; how the provider encodes them (display
// block, data-only, or both) is the sender adapter's concern.
type Payload struct {
	// Title is the display title.
	Title string
	// Body is the display body.
	Body string
	// Type is the logical notification type carried in the data block.
	Type string
	// Priority is the logical priority carried in the data block.
	Priority string
	// ChannelID is the client-side notification channel identity.
	ChannelID string
	// Sound is the client-side sound policy for the channel.
	Sound string
	// Data carries any extra key-value pairs for the client.
	Data map[string]string
}

// InboxRecord is one in-app notification for the dropdown/inbox display.
type InboxRecord struct {
	// ID uniquely identifies the record.
	ID string
	// Title is the display title.
	Title string
	// Message is the display body.
	Message string
	// Type is the logical notification type.
	Type string
	// Priority is the logical priority.
	Priority string
	// Route is the client route opened when the record is tapped.
	Route string
	// ToRole targets a whole role; empty when ToUID is set.
	ToRole Role
	// ToUID targets a single recipient; empty when ToRole is set.
	ToUID string
	// SuppressPush marks the record as in-app only: the notification-record
	// trigger must not derive a second push from it.
	SuppressPush bool
	// IsRead is the single read-tracking flag the core maintains.
	IsRead bool
	// CreatedAt is when the record was written.
	CreatedAt time.Time
}
