package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"pygmalion/internal/domain"
)

type mockUserRepo struct {
	usersByID    map[string]domain.User
	usersByEmail map[string]string
	createErr    error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:    make(map[string]domain.User),
		usersByEmail: make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.usersByID[user.ID] = user
	if user.Email != "" {
		m.usersByEmail[user.Email] = user.ID
	}
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	id, ok := m.usersByEmail[email]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.GetByID(context.Background(), id)
}

func TestUserServiceRegister_HappyPath(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(zap.NewNop(), repo)

	user, err := svc.Register(context.Background(), RegisterInput{
		Email:       "  User@Example.COM ",
		DisplayName: " Test ",
		Password:    "supersecret",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == "" {
		t.Fatalf("expected generated user id")
	}
	if user.Email != "user@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.DisplayName != "Test" {
		t.Fatalf("expected trimmed display name, got %q", user.DisplayName)
	}
	if user.PasswordHash == "" || user.PasswordHash == "supersecret" {
		t.Fatalf("password must be stored hashed, got %q", user.PasswordHash)
	}
	if _, ok := repo.usersByID[user.ID]; !ok {
		t.Fatalf("expected user persisted")
	}
}

func TestUserServiceRegister_Validation(t *testing.T) {
	svc := NewUserService(zap.NewNop(), newMockUserRepo())

	if _, err := svc.Register(context.Background(), RegisterInput{Email: "not-an-email", Password: "supersecret"}); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if _, err := svc.Register(context.Background(), RegisterInput{Email: "u@example.com", Password: "short"}); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestUserServiceAuthenticate(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(zap.NewNop(), repo)

	registered, err := svc.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "supersecret",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	user, err := svc.Authenticate(context.Background(), " USER@example.com ", "supersecret")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.ID != registered.ID {
		t.Fatalf("expected registered user, got %q", user.ID)
	}

	if _, err := svc.Authenticate(context.Background(), "user@example.com", "wrongpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "nobody@example.com", "supersecret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestUserServiceGetByID(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(zap.NewNop(), repo)

	if _, err := svc.GetByID(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	registered, err := svc.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "supersecret",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	user, err := svc.GetByID(context.Background(), registered.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if user.Email != "user@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
}
