package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(pw, storedHash string) bool
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Sign(subject, email, name, picture string) (string, error)
}

type Service struct {
	Repo   Repo
	Hasher PasswordHasher
	Tokens TokenIssuer
}

func NewService(repo Repo, hasher PasswordHasher, tokens TokenIssuer) *Service {
	return &Service{Repo: repo, Hasher: hasher, Tokens: tokens}
}

// Session is a user paired with a freshly issued token.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Register creates a password account and signs it in.
func (s *Service) Register(ctx context.Context, in RegisterRequest) (Session, error) {
	if err := s.ready(); err != nil {
		return Session{}, err
	}
	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return Session{}, err
	}
	first := strings.TrimSpace(in.FirstName)
	last := strings.TrimSpace(in.LastName)
	user := User{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(in.Email),
		FirstName:    first,
		LastName:     last,
		FullName:     strings.TrimSpace(first + " " + last),
		Provider:     ProviderPassword,
		PasswordHash: hash,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return Session{}, err
	}
	created, err := s.Repo.GetByID(ctx, user.ID)
	if err != nil {
		return Session{}, err
	}
	return s.issue(created)
}

// Login verifies credentials. Unknown emails and wrong passwords are indistinguishable.
func (s *Service) Login(ctx context.Context, in LoginRequest) (Session, error) {
	if err := s.ready(); err != nil {
		return Session{}, err
	}
	user, err := s.Repo.GetByEmail(ctx, NormalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if user.PasswordHash == "" || !s.Hasher.Verify(in.Password, user.PasswordHash) {
		return Session{}, ErrInvalidCredentials
	}
	return s.issue(user)
}

// UpsertFromAuth persists an identity from an external provider and signs it in.
func (s *Service) UpsertFromAuth(ctx context.Context, user User) (Session, error) {
	if s == nil || s.Repo == nil || s.Tokens == nil {
		return Session{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.Email) == "" {
		return Session{}, errors.New("user id and email are required")
	}
	user.Email = NormalizeEmail(user.Email)
	if err := s.Repo.Upsert(ctx, user); err != nil {
		return Session{}, err
	}
	stored, err := s.Repo.GetByID(ctx, user.ID)
	if err != nil {
		return Session{}, err
	}
	return s.issue(stored)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, errors.New("user id is required")
	}
	return s.Repo.GetByID(ctx, userID)
}

func (s *Service) issue(user User) (Session, error) {
	token, err := s.Tokens.Sign(user.ID, user.Email, user.DisplayName(), user.PictureURL)
	if err != nil {
		return Session{}, err
	}
	return Session{User: user, Token: token}, nil
}

func (s *Service) ready() error {
	if s == nil || s.Repo == nil || s.Hasher == nil || s.Tokens == nil {
		return errors.New("users service not configured")
	}
	return nil
}

// NormalizeEmail lowercases and trims an address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
