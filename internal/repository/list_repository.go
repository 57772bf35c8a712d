package repository

import (
	"database/sql"
)

// ListRepositoryInterface is the distribution-list lookup used by the
// recipient resolver.
type ListRepositoryInterface interface {
	MemberAddresses(tenantID, listID string) ([]string, error)
}

type ListRepository struct {
	DB *sql.DB
}

// MemberAddresses expands a named list into its members' addresses.
func (r *ListRepository) MemberAddresses(tenantID, listID string) ([]string, error) {
	query := `
        SELECT c.email
        FROM list_members m
        JOIN lists l ON l.id = m.list_id
        JOIN contacts c ON c.id = m.contact_id
        WHERE l.tenant_id = $1 AND l.id = $2
    `
	rows, err := r.DB.Query(query, tenantID, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	addrs := []string{}
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		addrs = append(addrs, email)
	}
	return addrs, rows.Err()
}

var _ ListRepositoryInterface = (*ListRepository)(nil)
