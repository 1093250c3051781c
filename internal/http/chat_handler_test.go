package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"pygmalion/internal/domain"
	"pygmalion/internal/service"
)

type chatFixture struct {
	router   *gin.Engine
	jwtSvc   *service.JWTService
	chats    *stubChatRepo
	messages *stubMessageRepo
}

func newChatHandlerFixture(t *testing.T, chats *stubChatRepo, characters *stubCharacterRepo) *chatFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	messages := &stubMessageRepo{}
	jwtSvc := service.NewJWTServiceWithStore("secret", 15*time.Minute, 30*time.Minute, service.NewMemoryRefreshTokenStore())
	handler := NewChatHandler(zap.NewNop(), chats, characters, messages)

	r := gin.New()
	group := r.Group("/api/chats", JWTAuthMiddleware(jwtSvc))
	group.POST("", handler.Create)
	group.GET("", handler.List)
	group.GET("/:id", handler.Get)
	group.GET("/:id/messages", handler.Messages)
	group.DELETE("/:id", handler.Delete)
	return &chatFixture{router: r, jwtSvc: jwtSvc, chats: chats, messages: messages}
}

func (f *chatFixture) request(t *testing.T, method, path, body, userID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		pair, err := f.jwtSvc.GeneratePair(domain.User{ID: userID, Email: userID + "@example.com"})
		if err != nil {
			t.Fatalf("generate pair: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestChatCreate_SeedsFirstMessageAndDefaultTitle(t *testing.T) {
	chats := &stubChatRepo{}
	characters := &stubCharacterRepo{character: domain.Character{
		ID:           3,
		Name:         "Nyx",
		FirstMessage: "Hola, soy Nyx.",
	}}
	f := newChatHandlerFixture(t, chats, characters)

	rec := f.request(t, http.MethodPost, "/api/chats", `{"character_id":3}`, "u1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if chats.created == nil {
		t.Fatalf("expected chat persisted")
	}
	if chats.created.UserID != "u1" || chats.created.CharacterID != 3 {
		t.Fatalf("unexpected created chat: %+v", chats.created)
	}
	if chats.created.Title != "Chat with Nyx" {
		t.Fatalf("expected default title, got %q", chats.created.Title)
	}
	if chats.firstMessage != "Hola, soy Nyx." {
		t.Fatalf("expected seeded first message, got %q", chats.firstMessage)
	}
}

func TestChatCreate_UnknownCharacter(t *testing.T) {
	f := newChatHandlerFixture(t, &stubChatRepo{}, &stubCharacterRepo{err: pgx.ErrNoRows})

	rec := f.request(t, http.MethodPost, "/api/chats", `{"character_id":99}`, "u1")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestChatCreate_RequiresAuth(t *testing.T) {
	f := newChatHandlerFixture(t, &stubChatRepo{}, &stubCharacterRepo{})

	rec := f.request(t, http.MethodPost, "/api/chats", `{"character_id":3}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestChatGet_OwnershipEnforced(t *testing.T) {
	chats := &stubChatRepo{chat: domain.Chat{ID: 7, UserID: "u1", CharacterID: 3}}
	f := newChatHandlerFixture(t, chats, &stubCharacterRepo{})

	rec := f.request(t, http.MethodGet, "/api/chats/7", "", "u1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = f.request(t, http.MethodGet, "/api/chats/7", "", "intruder")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = f.request(t, http.MethodGet, "/api/chats/not-a-number", "", "u1")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestChatGet_NotFound(t *testing.T) {
	f := newChatHandlerFixture(t, &stubChatRepo{err: pgx.ErrNoRows}, &stubCharacterRepo{})

	rec := f.request(t, http.MethodGet, "/api/chats/99", "", "u1")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestChatMessages_ReturnsHistory(t *testing.T) {
	chats := &stubChatRepo{chat: domain.Chat{ID: 7, UserID: "u1", CharacterID: 3}}
	f := newChatHandlerFixture(t, chats, &stubCharacterRepo{})
	f.messages.created = []domain.Message{
		{ID: 1, ChatID: 7, Role: domain.RoleAssistant, Content: "Hola"},
		{ID: 2, ChatID: 7, Role: domain.RoleUser, Content: "hey"},
	}

	rec := f.request(t, http.MethodGet, "/api/chats/7/messages", "", "u1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"Hola"`) || !strings.Contains(body, `"hey"`) {
		t.Fatalf("expected both messages in body: %s", body)
	}
}

func TestChatDelete_OwnerOnly(t *testing.T) {
	chats := &stubChatRepo{chat: domain.Chat{ID: 7, UserID: "u1", CharacterID: 3}}
	f := newChatHandlerFixture(t, chats, &stubCharacterRepo{})

	rec := f.request(t, http.MethodDelete, "/api/chats/7", "", "intruder")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d (%s)", rec.Code, rec.Body.String())
	}
	if chats.deletedID != 0 {
		t.Fatalf("forbidden delete must not reach the repository")
	}

	rec = f.request(t, http.MethodDelete, "/api/chats/7", "", "u1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if chats.deletedID != 7 {
		t.Fatalf("expected chat 7 deleted, got %d", chats.deletedID)
	}
}
