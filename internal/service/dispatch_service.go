// internal/service/dispatch_service.go
package service

import (
	"context"
	"errors"
	"log"
	"net/url"

	"github.com/pikarlabs/campaign-dispatch/internal/config"
	appErrors "github.com/pikarlabs/campaign-dispatch/internal/errors"
	"github.com/pikarlabs/campaign-dispatch/internal/model"
	"github.com/pikarlabs/campaign-dispatch/internal/provider"
	"github.com/pikarlabs/campaign-dispatch/internal/render"
	"github.com/pikarlabs/campaign-dispatch/internal/repository"
)

// DispatchService turns one reserved campaign into individually rendered and
// delivered messages. Per-recipient failures are isolated; only an error that
// prevents the recipient loop from running at all fails the campaign.
type DispatchService struct {
	Campaigns repository.CampaignRepositoryInterface
	Tokens    *TokenService
	Resolver  *RecipientResolver
	Provider  provider.DeliveryProvider
	Cfg       *config.Config
}

// Dispatch sends one queued campaign. A campaign that is missing or not in
// "queued" is a no-op, so a duplicate delivery of the same job is harmless.
func (s *DispatchService) Dispatch(campaignID int) error {
	campaign, err := s.Campaigns.GetByID(campaignID)
	if err != nil {
		var notFound *appErrors.ErrCampaignNotFound
		if errors.As(err, &notFound) {
			log.Println("⚠️ dispatch skipped, campaign not found:", campaignID)
			return nil
		}
		return err
	}
	if campaign.Status != model.StatusQueued {
		log.Printf("dispatch skipped, campaign %d is %s, not queued\n", campaignID, campaign.Status)
		return nil
	}

	// Move to "sending" before any delivery work, so a crash mid-run leaves
	// the campaign visibly in flight. Losing this CAS means another worker
	// claimed the campaign first.
	if err := s.Campaigns.TransitionStatus(campaignID, model.StatusQueued, model.StatusSending); err != nil {
		var invalid *appErrors.ErrInvalidTransition
		if errors.As(err, &invalid) {
			log.Println("dispatch skipped, campaign", campaignID, "claimed elsewhere")
			return nil
		}
		return err
	}

	fromName, fromAddress := s.senderIdentity(campaign)
	if fromAddress == "" {
		return s.fail(campaignID, errors.New("no sender address configured"))
	}

	recipients, err := s.Resolver.Resolve(campaign)
	if err != nil {
		return s.fail(campaignID, err)
	}

	sendIDs := []string{}
	failed := 0
	for _, addr := range recipients {
		// Fresh suppression read per recipient, so a mid-run unsubscribe
		// still stops later sends.
		suppressed, err := s.Tokens.IsSuppressed(campaign.TenantID, addr)
		if err != nil {
			log.Println("⚠️ suppression check failed for", addr, ":", err)
			failed++
			continue
		}
		if suppressed {
			log.Println("skipping suppressed recipient:", addr)
			continue
		}

		token, err := s.Tokens.EnsureToken(campaign.TenantID, addr)
		if err != nil {
			log.Println("⚠️ failed to issue unsubscribe token for", addr, ":", err)
			failed++
			continue
		}

		doc := render.Document(campaign.Subject, campaign.PreviewText, campaign.Blocks,
			s.unsubscribeURL(token, campaign.TenantID, addr))

		ctx, cancel := context.WithTimeout(context.Background(), s.Cfg.SendTimeout)
		sendID, err := s.Provider.Send(ctx, provider.Message{
			FromName:    fromName,
			FromAddress: fromAddress,
			To:          addr,
			Subject:     campaign.Subject,
			HTML:        doc,
		})
		cancel()
		if err != nil {
			// A bad individual send must not sink the batch.
			log.Println("⚠️ failed to send to", addr, ":", err)
			failed++
			continue
		}
		sendIDs = append(sendIDs, sendID)
	}

	if err := s.Campaigns.MarkSent(campaignID, sendIDs, failed); err != nil {
		return err
	}

	log.Printf("✅ Campaign %d sent: %d delivered, %d failed, %d suppressed\n",
		campaignID, len(sendIDs), failed, len(recipients)-len(sendIDs)-failed)
	return nil
}

// fail marks the campaign failed with the fatal cause and surfaces it.
func (s *DispatchService) fail(campaignID int, cause error) error {
	if err := s.Campaigns.MarkFailed(campaignID, cause.Error()); err != nil {
		log.Println("⚠️ failed to record dispatch failure for campaign", campaignID, ":", err)
	}
	return cause
}

func (s *DispatchService) senderIdentity(c *model.Campaign) (string, string) {
	name, addr := c.FromName, c.FromAddress
	if name == "" {
		name = s.Cfg.DefaultFromName
	}
	if addr == "" {
		addr = s.Cfg.DefaultFromAddress
	}
	return name, addr
}

func (s *DispatchService) unsubscribeURL(token, tenantID, address string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("tenant", tenantID)
	q.Set("email", address)
	return s.Cfg.BaseURL + "/unsubscribe?" + q.Encode()
}
