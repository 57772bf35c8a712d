// internal/model/audit.go
package model

import "time"

// Audit event kinds written by the dispatch core.
const (
	AuditUnsubscribe         = "unsubscribe"
	AuditCampaignRejected    = "campaign_rejected"
	AuditRecipientsTruncated = "recipients_truncated"
)

// AuditEvent is an append-only record; the core only ever writes these.
type AuditEvent struct {
	ID        int               `db:"id" json:"id"`
	TenantID  string            `db:"tenant_id" json:"tenant_id"`
	Kind      string            `db:"kind" json:"kind"`
	Detail    map[string]string `db:"detail" json:"detail"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
}
