// internal/model/token.go
package model

import "time"

// UnsubscribeToken is the per-(tenant, address) opt-out record. At most one
// row exists per key; Active=true means the address is suppressed.
type UnsubscribeToken struct {
	ID        int       `db:"id" json:"id"`
	TenantID  string    `db:"tenant_id" json:"tenant_id"`
	Address   string    `db:"address" json:"address"`
	Token     string    `db:"token" json:"token"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
