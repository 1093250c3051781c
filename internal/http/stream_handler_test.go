package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"pygmalion/internal/domain"
	"pygmalion/internal/llm"
	"pygmalion/internal/repository"
	"pygmalion/internal/service"
)

type stubChatRepo struct {
	chat domain.Chat
	err  error

	created      *domain.Chat
	firstMessage string
	deletedID    int64
}

func (s *stubChatRepo) CreateWithFirstMessage(_ context.Context, chat domain.Chat, firstMessage string) (domain.Chat, error) {
	chat.ID = 42
	s.created = &chat
	s.firstMessage = firstMessage
	return chat, nil
}

func (s *stubChatRepo) GetByID(context.Context, int64) (domain.Chat, error) {
	return s.chat, s.err
}

func (s *stubChatRepo) ListByUserID(context.Context, string) ([]domain.Chat, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Chat{s.chat}, nil
}

func (s *stubChatRepo) Delete(_ context.Context, id int64) error {
	s.deletedID = id
	return nil
}

type stubCharacterRepo struct {
	character domain.Character
	err       error
}

func (s *stubCharacterRepo) Create(context.Context, domain.Character) (int64, error) {
	return 0, errors.New("not implemented")
}

func (s *stubCharacterRepo) Update(context.Context, domain.Character) error {
	return errors.New("not implemented")
}

func (s *stubCharacterRepo) Delete(context.Context, int64) error {
	return errors.New("not implemented")
}

func (s *stubCharacterRepo) GetByID(context.Context, int64) (domain.Character, error) {
	return s.character, s.err
}

func (s *stubCharacterRepo) List(context.Context, repository.CharacterFilter) ([]domain.Character, error) {
	return nil, errors.New("not implemented")
}

func (s *stubCharacterRepo) ListSimilar(context.Context, int64, int) ([]domain.Character, error) {
	return nil, errors.New("not implemented")
}

func (s *stubCharacterRepo) IncrementViewCount(context.Context, int64) error {
	return errors.New("not implemented")
}

func (s *stubCharacterRepo) ToggleStar(context.Context, string, int64) (bool, error) {
	return false, errors.New("not implemented")
}

func (s *stubCharacterRepo) IsStarred(context.Context, string, int64) (bool, error) {
	return false, errors.New("not implemented")
}

type stubMessageRepo struct {
	created []domain.Message
}

func (s *stubMessageRepo) Create(_ context.Context, message domain.Message) (int64, error) {
	s.created = append(s.created, message)
	return int64(len(s.created)), nil
}

func (s *stubMessageRepo) ListByChatID(context.Context, int64) ([]domain.Message, error) {
	return append([]domain.Message{}, s.created...), nil
}

type streamFixture struct {
	router   *gin.Engine
	jwtSvc   *service.JWTService
	messages *stubMessageRepo
}

func newStreamHandlerFixture(t *testing.T, chats *stubChatRepo, characters *stubCharacterRepo, client *llm.MockClient) *streamFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	messages := &stubMessageRepo{}
	jwtSvc := service.NewJWTServiceWithStore("secret", 15*time.Minute, 30*time.Minute, service.NewMemoryRefreshTokenStore())
	streamSvc := service.NewStreamService(zap.NewNop(), chats, characters, messages, client, service.PromptBuilder{})
	handler := NewStreamHandler(zap.NewNop(), streamSvc, jwtSvc)

	r := gin.New()
	r.POST("/api/chat/stream", handler.StreamChat)
	return &streamFixture{router: r, jwtSvc: jwtSvc, messages: messages}
}

func (f *streamFixture) post(t *testing.T, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat/stream", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *streamFixture) accessToken(t *testing.T, userID string) string {
	t.Helper()
	pair, err := f.jwtSvc.GeneratePair(domain.User{ID: userID, Email: userID + "@example.com"})
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	return pair.AccessToken
}

func ownedStreamFixture(t *testing.T, client *llm.MockClient) *streamFixture {
	chats := &stubChatRepo{chat: domain.Chat{ID: 7, UserID: "u1", CharacterID: 3}}
	characters := &stubCharacterRepo{character: domain.Character{ID: 3, Name: "Nyx", Personality: "night spirit"}}
	return newStreamHandlerFixture(t, chats, characters, client)
}

func TestStreamChat_MissingFieldsBeatsMissingToken(t *testing.T) {
	f := ownedStreamFixture(t, &llm.MockClient{})

	// Sin token y sin userMessage: la validacion de campos gana.
	rec := f.post(t, `{"chatId":7}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Missing chatId or userMessage") {
		t.Fatalf("unexpected error body: %s", rec.Body.String())
	}
}

func TestStreamChat_RejectsMissingToken(t *testing.T) {
	f := ownedStreamFixture(t, &llm.MockClient{})

	rec := f.post(t, `{"chatId":7,"userMessage":"hola"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(f.messages.created) != 0 {
		t.Fatalf("unauthorized request must not persist anything, got %d", len(f.messages.created))
	}
}

func TestStreamChat_ChatNotFound(t *testing.T) {
	f := newStreamHandlerFixture(t, &stubChatRepo{err: pgx.ErrNoRows}, &stubCharacterRepo{}, &llm.MockClient{})

	rec := f.post(t, `{"chatId":99,"userMessage":"hola"}`, f.accessToken(t, "u1"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestStreamChat_ForbiddenChat(t *testing.T) {
	f := ownedStreamFixture(t, &llm.MockClient{})

	rec := f.post(t, `{"chatId":7,"userMessage":"hola"}`, f.accessToken(t, "intruder"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(f.messages.created) != 0 {
		t.Fatalf("forbidden request must not persist anything, got %d", len(f.messages.created))
	}
}

func TestStreamChat_HappyPathEndsWithDone(t *testing.T) {
	client := &llm.MockClient{Fragments: []string{"Ho", "la"}}
	f := ownedStreamFixture(t, client)

	rec := f.post(t, `{"chatId":7,"userMessage":"hola"}`, f.accessToken(t, "u1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/event-stream") {
		t.Fatalf("expected event stream content type, got %q", got)
	}

	body := rec.Body.String()
	first := strings.Index(body, `data: {"chunk":"Ho"}`)
	second := strings.Index(body, `data: {"chunk":"la"}`)
	done := strings.Index(body, `data: {"done":true}`)
	if first < 0 || second < 0 || done < 0 {
		t.Fatalf("missing events in body:\n%s", body)
	}
	if !(first < second && second < done) {
		t.Fatalf("events out of order in body:\n%s", body)
	}
	if strings.Contains(body, `"error"`) {
		t.Fatalf("successful turn must not emit an error event:\n%s", body)
	}

	// user + assistant persistidos, en ese orden
	if len(f.messages.created) != 2 {
		t.Fatalf("expected two persisted messages, got %d", len(f.messages.created))
	}
	if f.messages.created[0].Role != domain.RoleUser || f.messages.created[1].Role != domain.RoleAssistant {
		t.Fatalf("unexpected persisted roles: %+v", f.messages.created)
	}
	if f.messages.created[1].Content != "Hola" {
		t.Fatalf("assistant message must be the full accumulated text, got %q", f.messages.created[1].Content)
	}
}

func TestStreamChat_StreamFailureEmitsErrorEvent(t *testing.T) {
	client := &llm.MockClient{
		Fragments: []string{"Ho"},
		StreamErr: errors.New("upstream reset"),
	}
	f := ownedStreamFixture(t, client)

	rec := f.post(t, `{"chatId":7,"userMessage":"hola"}`, f.accessToken(t, "u1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("headers already sent: expected 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	if !strings.Contains(body, `data: {"error":"Failed to generate response"}`) {
		t.Fatalf("expected error event in body:\n%s", body)
	}
	if strings.Contains(body, `"done"`) {
		t.Fatalf("failed turn must not emit done:\n%s", body)
	}

	// Solo el mensaje del usuario quedo persistido.
	if len(f.messages.created) != 1 || f.messages.created[0].Role != domain.RoleUser {
		t.Fatalf("expected only the user message persisted, got %+v", f.messages.created)
	}
}

func TestStreamChat_OpenFailureEmitsErrorEvent(t *testing.T) {
	client := &llm.MockClient{OpenErr: errors.New("connection refused")}
	f := ownedStreamFixture(t, client)

	rec := f.post(t, `{"chatId":7,"userMessage":"hola"}`, f.accessToken(t, "u1"))
	body := rec.Body.String()
	if !strings.Contains(body, `data: {"error":"Failed to generate response"}`) {
		t.Fatalf("expected error event in body:\n%s", body)
	}
	if strings.Contains(body, `"chunk"`) || strings.Contains(body, `"done"`) {
		t.Fatalf("open failure must emit only the error event:\n%s", body)
	}
}
