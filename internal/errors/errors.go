// internal/errors/errors.go
package appErrors

import "fmt"

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrInvalidToken signals an unsubscribe token that does not exist.
type ErrInvalidToken struct {
	Token string
}

func (e *ErrInvalidToken) Error() string {
	return fmt.Sprintf("unsubscribe token %q not found", e.Token)
}

func NewInvalidToken(token string) error {
	return &ErrInvalidToken{Token: token}
}

// ErrInvalidTransition signals a status move the state machine forbids,
// or a compare-and-set that lost to a concurrent writer.
type ErrInvalidTransition struct {
	CampaignID int
	From       string
	To         string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("campaign %d cannot move from %s to %s", e.CampaignID, e.From, e.To)
}

func NewInvalidTransition(id int, from, to string) error {
	return &ErrInvalidTransition{CampaignID: id, From: from, To: to}
}
