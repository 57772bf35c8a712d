package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/pikarlabs/campaign-dispatch/internal/handler"
	"github.com/pikarlabs/campaign-dispatch/internal/model"
	"github.com/pikarlabs/campaign-dispatch/internal/service"
)

type MockTokenRepo struct {
	mu   sync.Mutex
	rows map[string]*model.UnsubscribeToken
}

func (m *MockTokenRepo) Ensure(tenantID, address, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := tenantID + "|" + address
	if t, ok := m.rows[key]; ok {
		return t.Token, nil
	}
	m.rows[key] = &model.UnsubscribeToken{TenantID: tenantID, Address: address, Token: token, CreatedAt: time.Now()}
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
		}
	}
	return nil
}

func (m *MockTokenRepo) IsSuppressed(tenantID, address string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[tenantID+"|"+address]
	return ok && t.Active, nil
}

type MockContactRepo struct{}

func (m *MockContactRepo) GetByEmail(tenantID, email string) (*model.Contact, error) { return nil, nil }
func (m *MockContactRepo) MarkUnsubscribed(id int) error                             { return nil }

type MockAuditRepo struct{}

func (m *MockAuditRepo) Append(tenantID, kind string, detail map[string]string) error { return nil }

func newHandler() (*handler.UnsubscribeHandler, *service.TokenService) {
	svc := &service.TokenService{
		Tokens:   &MockTokenRepo{rows: map[string]*model.UnsubscribeToken{}},
		Contacts: &MockContactRepo{},
		Audit:    &MockAuditRepo{},
	}
	return &handler.UnsubscribeHandler{Tokens: svc}, svc
}

func get(h *handler.UnsubscribeHandler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.Unsubscribe(rec, req)
	return rec
}

func decodeSuccess(t *testing.T, rec *httptest.ResponseRecorder) bool {
	t.Helper()
	var body map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	return body["success"]
}

func TestUnsubscribeValidToken(t *testing.T) {
	h, svc := newHandler()
	token, _ := svc.EnsureToken("acme", "a@x.com")

	rec := get(h, "/unsubscribe?token="+token+"&tenant=acme&email=a@x.com")
	if rec.Code != http.StatusOK || !decodeSuccess(t, rec) {
		t.Fatalf("expected success, got %d %s", rec.Code, rec.Body.String())
	}

	suppressed, _ := svc.IsSuppressed("acme", "a@x.com")
	if !suppressed {
		t.Error("expected address suppressed after unsubscribe")
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	h, svc := newHandler()
	token, _ := svc.EnsureToken("acme", "a@x.com")

	get(h, "/unsubscribe?token="+token)
	rec := get(h, "/unsubscribe?token="+token)
	if rec.Code != http.StatusOK || !decodeSuccess(t, rec) {
		t.Fatalf("re-visiting a used link must succeed, got %d", rec.Code)
	}
}

func TestUnsubscribeMismatchedLink(t *testing.T) {
	h, svc := newHandler()
	token, _ := svc.EnsureToken("acme", "a@x.com")

	rec := get(h, "/unsubscribe?token="+token+"&tenant=globex&email=a@x.com")
	if rec.Code != http.StatusBadRequest || decodeSuccess(t, rec) {
		t.Fatalf("expected failure for wrong tenant, got %d %s", rec.Code, rec.Body.String())
	}

	rec = get(h, "/unsubscribe?token="+token+"&tenant=acme&email=other@x.com")
	if rec.Code != http.StatusBadRequest || decodeSuccess(t, rec) {
		t.Fatalf("expected failure for wrong email, got %d %s", rec.Code, rec.Body.String())
	}

	suppressed, _ := svc.IsSuppressed("acme", "a@x.com")
	if suppressed {
		t.Error("mismatched link must not suppress the address")
	}
}

func TestUnsubscribeUnknownToken(t *testing.T) {
	h, _ := newHandler()

	rec := get(h, "/unsubscribe?token=bogus")
	if rec.Code != http.StatusBadRequest || decodeSuccess(t, rec) {
		t.Fatalf("expected failure for unknown token, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestUnsubscribeMissingToken(t *testing.T) {
	h, _ := newHandler()

	rec := get(h, "/unsubscribe")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without token, got %d", rec.Code)
	}
}
