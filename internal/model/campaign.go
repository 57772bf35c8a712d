// internal/model/campaign.go
package model

import "time"

// Campaign statuses. A campaign only ever moves forward through these.
const (
	StatusDraft     = "draft"
	StatusScheduled = "scheduled"
	StatusQueued    = "queued"
	StatusSending   = "sending"
	StatusSent      = "sent"
	StatusFailed    = "failed"
)

// Audience types.
const (
	AudienceDirect = "direct"
	AudienceList   = "list"
)

type Campaign struct {
	ID             int        `db:"id" json:"id"`
	TenantID       string     `db:"tenant_id" json:"tenant_id"`
	Subject        string     `db:"subject" json:"subject"`
	PreviewText    string     `db:"preview_text" json:"preview_text,omitempty"`
	Blocks         []Block    `db:"blocks" json:"blocks"`
	AudienceType   string     `db:"audience_type" json:"audience_type"`
	Recipients     []string   `db:"recipients" json:"recipients"`
	AudienceListID string     `db:"audience_list_id" json:"audience_list_id,omitempty"`
	FromName       string     `db:"from_name" json:"from_name"`
	FromAddress    string     `db:"from_address" json:"from_address"`
	ScheduledAt    *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	Status         string     `db:"status" json:"status"`
	SendIDs        []string   `db:"send_ids" json:"send_ids"`
	FailedCount    int        `db:"failed_count" json:"failed_count"`
	LastError      string     `db:"last_error,omitempty" json:"last_error,omitempty"`
	SentAt         *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// transitions encodes the forward-only status graph:
// draft -> scheduled -> queued -> sending -> sent | failed
var transitions = map[string][]string{
	StatusDraft:     {StatusScheduled},
	StatusScheduled: {StatusQueued},
	StatusQueued:    {StatusSending},
	StatusSending:   {StatusSent, StatusFailed},
}

// CanTransition reports whether a campaign may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
