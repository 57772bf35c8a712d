package repository

import (
	"database/sql"
	"encoding/json"
)

// AuditRepositoryInterface is the append-only audit sink. Write-only from
// this core's perspective; dashboards read it elsewhere.
type AuditRepositoryInterface interface {
	Append(tenantID, kind string, detail map[string]string) error
}

type AuditRepository struct {
	DB *sql.DB
}

func (r *AuditRepository) Append(tenantID, kind string, detail map[string]string) error {
	payload, err := json.Marshal(detail)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO audit_events (tenant_id, kind, detail, created_at)
        VALUES ($1, $2, $3, NOW())
    `
	_, err = r.DB.Exec(query, tenantID, kind, string(payload))
	return err
}

var _ AuditRepositoryInterface = (*AuditRepository)(nil)
