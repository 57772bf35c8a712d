package repository

import (
	"database/sql"
	"strings"

	"github.com/pikarlabs/campaign-dispatch/internal/model"
)

// ContactRepositoryInterface is the tenant address book as seen by the core.
type ContactRepositoryInterface interface {
	GetByEmail(tenantID, email string) (*model.Contact, error)
	MarkUnsubscribed(id int) error
}

// ContactRepository is the concrete implementation
type ContactRepository struct {
	DB *sql.DB
}

// GetByEmail fetches a contact by its tenant-scoped address
func (r *ContactRepository) GetByEmail(tenantID, email string) (*model.Contact, error) {
	query := `
        SELECT id, tenant_id, email, first_name, last_name, unsubscribed
        FROM contacts
        WHERE tenant_id = $1 AND email = $2
    `
	row := r.DB.QueryRow(query, tenantID, strings.ToLower(email))

	var c model.Contact
	if err := row.Scan(&c.ID, &c.TenantID, &c.Email, &c.FirstName, &c.LastName, &c.Unsubscribed); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &c, nil
}

func (r *ContactRepository) MarkUnsubscribed(id int) error {
	query := `UPDATE contacts SET unsubscribed=TRUE WHERE id=$1`
	_, err := r.DB.Exec(query, id)
	return err
}

var _ ContactRepositoryInterface = (*ContactRepository)(nil)
