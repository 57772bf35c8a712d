// internal/service/token_service.go
package service

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	appErrors "github.com/pikarlabs/campaign-dispatch/internal/errors"
	"github.com/pikarlabs/campaign-dispatch/internal/model"
	"github.com/pikarlabs/campaign-dispatch/internal/repository"
)

// TokenService issues per-(tenant, address) unsubscribe tokens and answers
// suppression checks.
type TokenService struct {
	Tokens   repository.TokenRepositoryInterface
	Contacts repository.ContactRepositoryInterface
	Audit    repository.AuditRepositoryInterface
}

// EnsureToken returns the existing token for (tenant, address) or stores a
// fresh one. Idempotent under concurrent callers: the repository upsert keys
// on (tenant, address), so both callers get the same surviving token.
func (s *TokenService) EnsureToken(tenantID, address string) (string, error) {
	address = strings.ToLower(strings.TrimSpace(address))
	return s.Tokens.Ensure(tenantID, address, uuid.NewString())
}

// IsSuppressed reports whether the address has opted out for this tenant.
// Callers check it per recipient right before sending, never cached across a
// dispatch run.
func (s *TokenService) IsSuppressed(tenantID, address string) (bool, error) {
	return s.Tokens.IsSuppressed(tenantID, strings.ToLower(strings.TrimSpace(address)))
}

// Activate consumes an unsubscribe link by token alone.
func (s *TokenService) Activate(token string) error {
	return s.ActivateLink(token, "", "")
}

// ActivateLink consumes an unsubscribe link. Unknown tokens error; re-visiting
// an already-used link succeeds. When the link carries a tenant or address,
// each supplied value must match the token row — a token pasted into another
// tenant's or recipient's link is rejected. A matching address-book contact is
// flagged unsubscribed, and one audit event records the action. Both side
// effects are best-effort: they must not fail the unsubscribe itself.
func (s *TokenService) ActivateLink(token, tenantID, address string) error {
	t, err := s.Tokens.GetByToken(token)
	if err != nil {
		return err
	}
	if t == nil {
		return appErrors.NewInvalidToken(token)
	}
	if tenantID != "" && t.TenantID != tenantID {
		return appErrors.NewInvalidToken(token)
	}
	if address != "" && strings.ToLower(strings.TrimSpace(address)) != t.Address {
		return appErrors.NewInvalidToken(token)
	}

	if !t.Active {
		if err := s.Tokens.Activate(token); err != nil {
			return err
		}
	}

	contactID := ""
	var contact *model.Contact
	bestEffort("contact unsubscribe", func() error {
		var err error
		contact, err = s.Contacts.GetByEmail(t.TenantID, t.Address)
		if err != nil {
			return err
		}
		if contact == nil {
			return nil
		}
		contactID = strconv.Itoa(contact.ID)
		if contact.Unsubscribed {
			return nil
		}
		return s.Contacts.MarkUnsubscribed(contact.ID)
	})

	bestEffort("unsubscribe audit", func() error {
		return s.Audit.Append(t.TenantID, model.AuditUnsubscribe, map[string]string{
			"token":      t.Token,
			"address":    t.Address,
			"contact_id": contactID,
		})
	})

	return nil
}
