package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	appErrors "github.com/pikarlabs/campaign-dispatch/internal/errors"
	"github.com/pikarlabs/campaign-dispatch/internal/model"
)

type CampaignRepositoryInterface interface {
	// Campaign CRUD
	Create(c *model.Campaign) error
	GetByID(id int) (*model.Campaign, error)
	ListByTenant(tenantID string, offset, limit int, status string) ([]*model.Campaign, int, error)

	// Status lifecycle
	TransitionStatus(campaignID int, from, to string) error
	ReserveDue(now time.Time, limit int) ([]int, error)
	MarkSent(campaignID int, sendIDs []string, failedCount int) error
	MarkFailed(campaignID int, lastError string) error
	FailStaleSending(cutoff time.Time) (int, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(c *model.Campaign) error {
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.StatusScheduled
	}
	blocks, err := json.Marshal(c.Blocks)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO campaigns
            (tenant_id, subject, preview_text, blocks, audience_type, recipients,
             audience_list_id, from_name, from_address, scheduled_at, status,
             send_ids, failed_count, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, '{}', 0, $12)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		c.TenantID, c.Subject, c.PreviewText, string(blocks), c.AudienceType,
		pq.Array(c.Recipients), c.AudienceListID, c.FromName, c.FromAddress,
		c.ScheduledAt, c.Status, c.CreatedAt,
	).Scan(&c.ID)
}

func (r *CampaignRepository) GetByID(id int) (*model.Campaign, error) {
	query := `
        SELECT id, tenant_id, subject, preview_text, blocks, audience_type,
               recipients, audience_list_id, from_name, from_address,
               scheduled_at, status, send_ids, failed_count, last_error,
               sent_at, created_at, updated_at
        FROM campaigns WHERE id=$1
    `
	c, err := scanCampaign(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) ListByTenant(tenantID string, offset, limit int, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := `
        SELECT id, tenant_id, subject, preview_text, blocks, audience_type,
               recipients, audience_list_id, from_name, from_address,
               scheduled_at, status, send_ids, failed_count, last_error,
               sent_at, created_at, updated_at
        FROM campaigns WHERE tenant_id=$1`
	args := []interface{}{tenantID}
	argPos := 2

	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}

	// Count total
	countQuery := `SELECT COUNT(*) FROM campaigns WHERE tenant_id=$1`
	argsCount := []interface{}{tenantID}
	if status != "" {
		countQuery += " AND status=$2"
		argsCount = append(argsCount, status)
	}

	var total int
	if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

// ====================== Status lifecycle ======================

// TransitionStatus is a compare-and-set: the row moves from -> to only if it
// is still in the expected status. A concurrent writer that got there first
// makes this return ErrInvalidTransition instead of clobbering their state.
func (r *CampaignRepository) TransitionStatus(campaignID int, from, to string) error {
	if !model.CanTransition(from, to) {
		return appErrors.NewInvalidTransition(campaignID, from, to)
	}
	query := `UPDATE campaigns SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`
	res, err := r.DB.Exec(query, to, campaignID, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewInvalidTransition(campaignID, from, to)
	}
	return nil
}

// ReserveDue claims up to limit campaigns whose schedule has passed, moving
// them scheduled -> queued in a single statement. FOR UPDATE SKIP LOCKED
// keeps two concurrent scans from ever claiming the same row.
func (r *CampaignRepository) ReserveDue(now time.Time, limit int) ([]int, error) {
	query := `
        UPDATE campaigns SET status=$1, updated_at=NOW()
        WHERE id IN (
            SELECT id FROM campaigns
            WHERE status=$2 AND scheduled_at <= $3
            ORDER BY scheduled_at ASC
            LIMIT $4
            FOR UPDATE SKIP LOCKED
        )
        RETURNING id
    `
	rows, err := r.DB.Query(query, model.StatusQueued, model.StatusScheduled, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkSent finalizes a dispatch run: appends the collected delivery ids
// (send_ids only grows), records the failure count and clears any prior error.
func (r *CampaignRepository) MarkSent(campaignID int, sendIDs []string, failedCount int) error {
	query := `
        UPDATE campaigns
        SET status=$1, send_ids = send_ids || $2, failed_count = failed_count + $3,
            last_error='', sent_at=NOW(), updated_at=NOW()
        WHERE id=$4 AND status=$5
    `
	res, err := r.DB.Exec(query, model.StatusSent, pq.Array(sendIDs), failedCount, campaignID, model.StatusSending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewInvalidTransition(campaignID, model.StatusSending, model.StatusSent)
	}
	return nil
}

func (r *CampaignRepository) MarkFailed(campaignID int, lastError string) error {
	query := `
        UPDATE campaigns SET status=$1, last_error=$2, updated_at=NOW()
        WHERE id=$3 AND status=$4
    `
	_, err := r.DB.Exec(query, model.StatusFailed, lastError, campaignID, model.StatusSending)
	return err
}

// FailStaleSending moves campaigns stuck in "sending" since before the cutoff
// to "failed". Run by the scheduler sweep; there is no resume path.
func (r *CampaignRepository) FailStaleSending(cutoff time.Time) (int, error) {
	query := `
        UPDATE campaigns SET status=$1, last_error='dispatch interrupted', updated_at=NOW()
        WHERE status=$2 AND updated_at < $3
    `
	res, err := r.DB.Exec(query, model.StatusFailed, model.StatusSending, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// ====================== Scan helpers ======================

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCampaign(row rowScanner) (*model.Campaign, error) {
	var c model.Campaign
	var blocks []byte
	var lastError sql.NullString
	err := row.Scan(
		&c.ID, &c.TenantID, &c.Subject, &c.PreviewText, &blocks, &c.AudienceType,
		pq.Array(&c.Recipients), &c.AudienceListID, &c.FromName, &c.FromAddress,
		&c.ScheduledAt, &c.Status, pq.Array(&c.SendIDs), &c.FailedCount,
		&lastError, &c.SentAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.LastError = lastError.String
	if len(blocks) > 0 {
		if err := json.Unmarshal(blocks, &c.Blocks); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
