// internal/service/campaign_service.go
package service

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/pikarlabs/campaign-dispatch/internal/config"
	appErrors "github.com/pikarlabs/campaign-dispatch/internal/errors"
	"github.com/pikarlabs/campaign-dispatch/internal/model"
	"github.com/pikarlabs/campaign-dispatch/internal/queue"
	"github.com/pikarlabs/campaign-dispatch/internal/repository"
)

// ErrValidation wraps guard-rail rejections so handlers can answer 400
// instead of 500.
type ErrValidation struct {
	Reason string
}

func (e *ErrValidation) Error() string { return e.Reason }

type CampaignService struct {
	Campaigns repository.CampaignRepositoryInterface
	Audit     repository.AuditRepositoryInterface
	Queue     queue.Queue
	Cfg       *config.Config
}

type CreateCampaignInput struct {
	TenantID       string        `json:"tenant_id"`
	Subject        string        `json:"subject"`
	PreviewText    string        `json:"preview_text"`
	Blocks         []model.Block `json:"blocks"`
	AudienceType   string        `json:"audience_type"`
	Recipients     []string      `json:"recipients"`
	AudienceListID string        `json:"audience_list_id"`
	FromName       string        `json:"from_name"`
	FromAddress    string        `json:"from_address"`
	ScheduledAt    *time.Time    `json:"scheduled_at"`
}

// CreateCampaign validates and stores a campaign in "scheduled" status. A
// schedule in the past (or within the immediate-dispatch grace window) is
// reserved and enqueued right away instead of waiting for the next scan.
func (s *CampaignService) CreateCampaign(in CreateCampaignInput) (*model.Campaign, error) {
	if err := s.validate(in); err != nil {
		bestEffort("rejection audit", func() error {
			return s.Audit.Append(in.TenantID, model.AuditCampaignRejected, map[string]string{
				"reason":  err.Error(),
				"subject": in.Subject,
			})
		})
		return nil, err
	}

	// Hard cap on the literal recipients field. This guards oversized single
	// inserts; list expansion at dispatch time is not capped here.
	if len(in.Recipients) > s.Cfg.RecipientCap {
		dropped := len(in.Recipients) - s.Cfg.RecipientCap
		log.Printf("⚠️ truncating campaign recipients: %d over cap of %d\n", dropped, s.Cfg.RecipientCap)
		in.Recipients = in.Recipients[:s.Cfg.RecipientCap]
		bestEffort("truncation audit", func() error {
			return s.Audit.Append(in.TenantID, model.AuditRecipientsTruncated, map[string]string{
				"dropped": strconv.Itoa(dropped),
				"cap":     strconv.Itoa(s.Cfg.RecipientCap),
			})
		})
	}

	c := &model.Campaign{
		TenantID:       in.TenantID,
		Subject:        in.Subject,
		PreviewText:    in.PreviewText,
		Blocks:         in.Blocks,
		AudienceType:   in.AudienceType,
		Recipients:     in.Recipients,
		AudienceListID: in.AudienceListID,
		FromName:       in.FromName,
		FromAddress:    in.FromAddress,
		ScheduledAt:    in.ScheduledAt,
		Status:         model.StatusScheduled,
	}
	if err := s.Campaigns.Create(c); err != nil {
		return nil, err
	}

	if in.ScheduledAt == nil || !in.ScheduledAt.After(time.Now().Add(s.Cfg.ImmediateGrace)) {
		if err := s.enqueue(c.ID); err != nil {
			log.Println("⚠️ immediate dispatch failed for campaign", c.ID, ":", err)
		} else {
			c.Status = model.StatusQueued
		}
	}

	return c, nil
}

// SendNow reserves an already-stored scheduled campaign and enqueues its
// dispatch, bypassing the periodic scan.
func (s *CampaignService) SendNow(campaignID int) error {
	campaign, err := s.Campaigns.GetByID(campaignID)
	if err != nil {
		return err
	}
	if campaign.Status != model.StatusScheduled {
		return &ErrValidation{Reason: fmt.Sprintf("campaign cannot be sent in status: %s", campaign.Status)}
	}
	return s.enqueue(campaignID)
}

// enqueue claims the campaign (scheduled -> queued) and publishes a dispatch
// job. The claim is the same compare-and-set the scheduler uses, so a
// concurrent scan and a send-now can not both dispatch the campaign.
func (s *CampaignService) enqueue(campaignID int) error {
	if err := s.Campaigns.TransitionStatus(campaignID, model.StatusScheduled, model.StatusQueued); err != nil {
		var invalid *appErrors.ErrInvalidTransition
		if errors.As(err, &invalid) {
			log.Println("campaign", campaignID, "already claimed")
			return nil
		}
		return err
	}
	return s.Queue.Publish(queue.DispatchTopic, campaignID)
}

func (s *CampaignService) validate(in CreateCampaignInput) error {
	if in.TenantID == "" {
		return &ErrValidation{Reason: "tenant_id is required"}
	}
	if in.Subject == "" {
		return &ErrValidation{Reason: "subject is required"}
	}
	switch in.AudienceType {
	case model.AudienceDirect:
		if len(in.Recipients) == 0 {
			return &ErrValidation{Reason: "direct campaigns need at least one recipient"}
		}
	case model.AudienceList:
		if in.AudienceListID == "" {
			return &ErrValidation{Reason: "list campaigns need an audience_list_id"}
		}
	default:
		return &ErrValidation{Reason: fmt.Sprintf("unknown audience_type: %q", in.AudienceType)}
	}
	for i, blk := range in.Blocks {
		if !blk.ValidKind() {
			return &ErrValidation{Reason: fmt.Sprintf("block %d has unknown kind %q", i, blk.Kind)}
		}
	}
	return nil
}

// ListCampaigns fetches a tenant's campaigns, most recent first, with pagination
func (s *CampaignService) ListCampaigns(tenantID string, page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.Campaigns.ListByTenant(tenantID, offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

// CampaignSummary is the read-only status surface consumed by dashboards.
type CampaignSummary struct {
	ID          int        `json:"id"`
	TenantID    string     `json:"tenant_id"`
	Subject     string     `json:"subject"`
	Status      string     `json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
	SendCount   int        `json:"send_count"`
	FailedCount int        `json:"failed_count"`
	LastError   string     `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func Summarize(c *model.Campaign) CampaignSummary {
	return CampaignSummary{
		ID:          c.ID,
		TenantID:    c.TenantID,
		Subject:     c.Subject,
		Status:      c.Status,
		ScheduledAt: c.ScheduledAt,
		SentAt:      c.SentAt,
		SendCount:   len(c.SendIDs),
		FailedCount: c.FailedCount,
		LastError:   c.LastError,
		CreatedAt:   c.CreatedAt,
	}
}

// GetCampaignDetails fetches a campaign by ID
func (s *CampaignService) GetCampaignDetails(id int) (*model.Campaign, error) {
	return s.Campaigns.GetByID(id)
}
