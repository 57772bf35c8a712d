package repository

import (
	"database/sql"

	"github.com/pikarlabs/campaign-dispatch/internal/model"
)

// TokenRepositoryInterface defines the unsubscribe token storage used by the
// token service.
type TokenRepositoryInterface interface {
	Ensure(tenantID, address, token string) (string, error)
	GetByToken(token string) (*model.UnsubscribeToken, error)
	Activate(token string) error
	IsSuppressed(tenantID, address string) (bool, error)
}

type TokenRepository struct {
	DB *sql.DB
}

// Ensure inserts a token row for (tenant, address) or returns the existing
// token. The no-op DO UPDATE makes RETURNING yield the surviving row, so two
// concurrent callers both observe the same token — the uniqueness constraint
// does the arbitration.
func (r *TokenRepository) Ensure(tenantID, address, token string) (string, error) {
	query := `
        INSERT INTO unsubscribe_tokens (tenant_id, address, token, active, created_at)
        VALUES ($1, $2, $3, FALSE, NOW())
        ON CONFLICT (tenant_id, address)
        DO UPDATE SET token = unsubscribe_tokens.token
        RETURNING token
    `
	var stored string
	if err := r.DB.QueryRow(query, tenantID, address, token).Scan(&stored); err != nil {
		return "", err
	}
	return stored, nil
}

func (r *TokenRepository) GetByToken(token string) (*model.UnsubscribeToken, error) {
	query := `
        SELECT id, tenant_id, address, token, active, created_at
        FROM unsubscribe_tokens WHERE token=$1
    `
	var t model.UnsubscribeToken
	err := r.DB.QueryRow(query, token).Scan(
		&t.ID, &t.TenantID, &t.Address, &t.Token, &t.Active, &t.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TokenRepository) Activate(token string) error {
	query := `UPDATE unsubscribe_tokens SET active=TRUE WHERE token=$1`
	_, err := r.DB.Exec(query, token)
	return err
}

// IsSuppressed reports whether (tenant, address) has an active opt-out.
// Pure read; called once per recipient right before each send.
func (r *TokenRepository) IsSuppressed(tenantID, address string) (bool, error) {
	query := `SELECT active FROM unsubscribe_tokens WHERE tenant_id=$1 AND address=$2`
	var active bool
	err := r.DB.QueryRow(query, tenantID, address).Scan(&active)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return active, nil
}

var _ TokenRepositoryInterface = (*TokenRepository)(nil)
