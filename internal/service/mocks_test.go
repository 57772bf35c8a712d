package service_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pikarlabs/campaign-dispatch/internal/config"
	appErrors "github.com/pikarlabs/campaign-dispatch/internal/errors"
	"github.com/pikarlabs/campaign-dispatch/internal/model"
	"github.com/pikarlabs/campaign-dispatch/internal/provider"
)

// --- Mock campaign repository ---

// MockCampaignRepo keeps campaigns in memory and records every status each
// campaign passes through, so tests can assert on the transition sequence.
type MockCampaignRepo struct {
	mu        sync.Mutex
	nextID    int
	campaigns map[int]*model.Campaign
	History   map[int][]string
}

func NewMockCampaignRepo() *MockCampaignRepo {
	return &MockCampaignRepo{
		nextID:    1,
		campaigns: make(map[int]*model.Campaign),
		History:   make(map[int][]string),
	}
}

func (m *MockCampaignRepo) Create(c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.nextID
	m.nextID++
	if c.Status == "" {
		c.Status = model.StatusScheduled
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	stored := *c
	m.campaigns[c.ID] = &stored
	m.History[c.ID] = append(m.History[c.ID], c.Status)
	return nil
}

func (m *MockCampaignRepo) GetByID(id int) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	cp := *c
	return &cp, nil
}

func (m *MockCampaignRepo) ListByTenant(tenantID string, offset, limit int, status string) ([]*model.Campaign, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matched := []*model.Campaign{}
	for _, c := range m.campaigns {
		if c.TenantID != tenantID {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		cp := *c
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := len(matched)
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *MockCampaignRepo) TransitionStatus(id int, from, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !model.CanTransition(from, to) {
		return appErrors.NewInvalidTransition(id, from, to)
	}
	c, ok := m.campaigns[id]
	if !ok || c.Status != from {
		return appErrors.NewInvalidTransition(id, from, to)
	}
	c.Status = to
	now := time.Now()
	c.UpdatedAt = &now
	m.History[id] = append(m.History[id], to)
	return nil
}

func (m *MockCampaignRepo) ReserveDue(now time.Time, limit int) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	due := []*model.Campaign{}
	for _, c := range m.campaigns {
		if c.Status == model.StatusScheduled && c.ScheduledAt != nil && !c.ScheduledAt.After(now) {
			due = append(due, c)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ScheduledAt.Before(*due[j].ScheduledAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	ids := []int{}
	for _, c := range due {
		c.Status = model.StatusQueued
		t := now
		c.UpdatedAt = &t
		m.History[c.ID] = append(m.History[c.ID], model.StatusQueued)
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (m *MockCampaignRepo) MarkSent(id int, sendIDs []string, failedCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.Status != model.StatusSending {
		return appErrors.NewInvalidTransition(id, model.StatusSending, model.StatusSent)
	}
	c.Status = model.StatusSent
	c.SendIDs = append(c.SendIDs, sendIDs...)
	c.FailedCount += failedCount
	c.LastError = ""
	now := time.Now()
	c.SentAt = &now
	c.UpdatedAt = &now
	m.History[id] = append(m.History[id], model.StatusSent)
	return nil
}

func (m *MockCampaignRepo) MarkFailed(id int, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.Status != model.StatusSending {
		return nil
	}
	c.Status = model.StatusFailed
	c.LastError = lastError
	now := time.Now()
	c.UpdatedAt = &now
	m.History[id] = append(m.History[id], model.StatusFailed)
	return nil
}

func (m *MockCampaignRepo) FailStaleSending(cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.campaigns {
		if c.Status == model.StatusSending && c.UpdatedAt != nil && c.UpdatedAt.Before(cutoff) {
			c.Status = model.StatusFailed
			c.LastError = "dispatch interrupted"
			m.History[c.ID] = append(m.History[c.ID], model.StatusFailed)
			n++
		}
	}
	return n, nil
}

// --- Mock token repository ---

type MockTokenRepo struct {
	mu   sync.Mutex
	rows map[string]*model.UnsubscribeToken // keyed tenant|address
}

func NewMockTokenRepo() *MockTokenRepo {
	return &MockTokenRepo{rows: make(map[string]*model.UnsubscribeToken)}
}

func tokenKey(tenantID, address string) string { return tenantID + "|" + address }

func (m *MockTokenRepo) Ensure(tenantID, address, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.rows[tokenKey(tenantID, address)]; ok {
		return existing.Token, nil
	}
	m.rows[tokenKey(tenantID, address)] = &model.UnsubscribeToken{
		ID:        len(m.rows) + 1,
		TenantID:  tenantID,
		Address:   address,
		Token:     token,
		CreatedAt: time.Now(),
	}
	return token, nil
}

func (m *MockTokenRepo) GetByToken(token string) (*model.UnsubscribeToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.rows {
		if t.Token == token {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockTokenRepo) Activate(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.rows {
		if t.Token == token {
			t.Active = true
			return nil
		}
	}
	return nil
}

func (m *MockTokenRepo) IsSuppressed(tenantID, address string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[tokenKey(tenantID, address)]
	return ok && t.Active, nil
}

func (m *MockTokenRepo) RowCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// Suppress seeds an active opt-out for (tenant, address).
func (m *MockTokenRepo) Suppress(tenantID, address string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[tokenKey(tenantID, address)] = &model.UnsubscribeToken{
		TenantID: tenantID,
		Address:  address,
		Token:    "seeded-" + address,
		Active:   true,
	}
}

// --- Mock contact repository ---

type MockContactRepo struct {
	mu       sync.Mutex
	contacts map[string]*model.Contact // keyed tenant|email
}

func NewMockContactRepo() *MockContactRepo {
	return &MockContactRepo{contacts: make(map[string]*model.Contact)}
}

func (m *MockContactRepo) Add(c model.Contact) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contacts[tokenKey(c.TenantID, c.Email)] = &c
}

func (m *MockContactRepo) GetByEmail(tenantID, email string) (*model.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[tokenKey(tenantID, email)]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *MockContactRepo) MarkUnsubscribed(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.contacts {
		if c.ID == id {
			c.Unsubscribed = true
		}
	}
	return nil
}

// --- Mock audit repository ---

type MockAuditRepo struct {
	mu     sync.Mutex
	Events []model.AuditEvent
	Err    error // when set, Append fails (exercises best-effort paths)
}

func (m *MockAuditRepo) Append(tenantID, kind string, detail map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, model.AuditEvent{TenantID: tenantID, Kind: kind, Detail: detail})
	return nil
}

func (m *MockAuditRepo) EventsOfKind(kind string) []model.AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.AuditEvent{}
	for _, e := range m.Events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// --- Mock list repository ---

type MockListRepo struct {
	Members map[string][]string // keyed tenant|list
	Err     error
}

func (m *MockListRepo) MemberAddresses(tenantID, listID string) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Members[tokenKey(tenantID, listID)], nil
}

// --- Mock delivery provider ---

type MockProvider struct {
	mu      sync.Mutex
	Sent    []provider.Message
	FailFor map[string]bool // recipients whose sends error
}

func (m *MockProvider) Send(ctx context.Context, msg provider.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailFor[msg.To] {
		return "", fmt.Errorf("provider rejected %s", msg.To)
	}
	m.Sent = append(m.Sent, msg)
	return fmt.Sprintf("send-%d", len(m.Sent)), nil
}

func (m *MockProvider) SentTo() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []string{}
	for _, msg := range m.Sent {
		out = append(out, msg.To)
	}
	return out
}

// --- Mock queue ---

type MockQueue struct {
	mu        sync.Mutex
	Published []int
}

func (q *MockQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if id, ok := payload.(int); ok {
		q.Published = append(q.Published, id)
	}
	return nil
}

func (q *MockQueue) Subscribe(topic string, handler func(payload any) error) error {
	return nil
}

// --- Config fixture ---

func testConfig() *config.Config {
	return &config.Config{
		BaseURL:            "https://app.test",
		DefaultFromName:    "Acme",
		DefaultFromAddress: "no-reply@acme.test",
		SendTimeout:        time.Second,
		ImmediateGrace:     time.Minute,
		RecipientCap:       5000,
		ReserveLimit:       50,
	}
}
