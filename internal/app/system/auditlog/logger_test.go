package auditlog_test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/mta-community/mtahub/internal/app/store/audit"
	"github.com/mta-community/mtahub/internal/app/system/auditlog"
	"github.com/mta-community/mtahub/internal/app/system/authz"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type memStore struct {
	mu     sync.Mutex
	events []audit.Event
}

func (m *memStore) Log(_ context.Context, e audit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(context.Background(), audit.Event{EventType: "test"})
	logger.LoginSuccess(context.Background(), req, "u1", "admin", "password", "a@example.com")
	logger.Logout(context.Background(), req, "u1")
}

func TestLogger_Log_ConfigOff(t *testing.T) {
	store := &memStore{}
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "off", Admin: "off"})

	logger.Log(context.Background(), audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Success: true})
	logger.Membership(context.Background(), nil, authz.System, audit.EventMembersExpired, "member", "", nil)

	if len(store.events) != 0 {
		t.Errorf("expected no events when config is 'off', got %d", len(store.events))
	}
}

func TestLogger_Log_ConfigDBOnly(t *testing.T) {
	store := &memStore{}
	core, logs := observer.New(zap.InfoLevel)
	logger := auditlog.New(store, zap.New(core), auditlog.Config{Auth: "db", Admin: "db"})

	req := httptest.NewRequest("POST", "/login", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1")
	logger.LoginSuccess(context.Background(), req, "u1", "admin", "password", "a@example.com")

	if len(store.events) != 1 {
		t.Fatalf("expected 1 stored event, got %d", len(store.events))
	}
	if store.events[0].IP != "10.0.0.1" {
		t.Errorf("IP = %q, want 10.0.0.1", store.events[0].IP)
	}
	if logs.Len() != 0 {
		t.Errorf("expected no zap entries with 'db', got %d", logs.Len())
	}
}

func TestLogger_Log_ConfigLogOnly(t *testing.T) {
	store := &memStore{}
	core, logs := observer.New(zap.InfoLevel)
	logger := auditlog.New(store, zap.New(core), auditlog.Config{Auth: "all", Admin: "log"})

	actor := authz.Actor{ID: "u2", Name: "Editor", Role: "editor"}
	logger.Content(context.Background(), nil, actor, audit.EventContentCreated, "events", "e1")

	if len(store.events) != 0 {
		t.Errorf("expected no stored events with 'log', got %d", len(store.events))
	}
	if logs.Len() != 1 {
		t.Fatalf("expected 1 zap entry, got %d", logs.Len())
	}
	fields := logs.All()[0].ContextMap()
	if fields["target_type"] != "events" || fields["actor_id"] != "u2" {
		t.Errorf("unexpected fields: %v", fields)
	}
}

func TestLogger_FailedLoginLogsWarn(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := auditlog.New(nil, zap.New(core), auditlog.Config{Auth: "all", Admin: "all"})

	logger.LoginFailed(context.Background(), nil, audit.EventLoginFailedWrongPassword, "u1", "a@example.com", "wrong password")

	if logs.Len() != 1 || logs.All()[0].Level != zap.WarnLevel {
		t.Errorf("expected one warn entry, got %+v", logs.All())
	}
}
