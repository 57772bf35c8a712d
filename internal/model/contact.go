// internal/model/contact.go
package model

type Contact struct {
	ID           int    `db:"id" json:"id"`
	TenantID     string `db:"tenant_id" json:"tenant_id"`
	Email        string `db:"email" json:"email"`
	FirstName    string `db:"first_name" json:"first_name"`
	LastName     string `db:"last_name" json:"last_name"`
	Unsubscribed bool   `db:"unsubscribed" json:"unsubscribed"`
}
