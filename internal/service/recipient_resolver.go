// internal/service/recipient_resolver.go
package service

import (
	"strings"

	"github.com/pikarlabs/campaign-dispatch/internal/model"
	"github.com/pikarlabs/campaign-dispatch/internal/repository"
)

// RecipientResolver expands a campaign's audience into a deduplicated set of
// lowercase destination addresses. No ordering guarantee.
type RecipientResolver struct {
	Lists repository.ListRepositoryInterface
}

func (r *RecipientResolver) Resolve(c *model.Campaign) ([]string, error) {
	seen := make(map[string]struct{})

	if c.AudienceType == model.AudienceList && c.AudienceListID != "" {
		addrs, err := r.Lists.MemberAddresses(c.TenantID, c.AudienceListID)
		if err != nil {
			return nil, err
		}
		for _, a := range addrs {
			addAddress(seen, a)
		}
	}

	// Literal recipients are always merged in, both for direct audiences and
	// as supplemental addresses alongside a list.
	for _, a := range c.Recipients {
		addAddress(seen, a)
	}

	out := make([]string, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	return out, nil
}

func addAddress(seen map[string]struct{}, addr string) {
	addr = strings.ToLower(strings.TrimSpace(addr))
	if addr == "" {
		return
	}
	seen[addr] = struct{}{}
}
