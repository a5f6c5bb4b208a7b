package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrEmailTaken         = errors.New("email already registered")
)

// DefaultTTL is how long a session token stays valid.
const DefaultTTL = 30 * 24 * time.Hour

// Session is the result of a successful sign-in.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Service signs users in and out. Tokens are HS256 JWTs whose jti names a
// row in the sessions table, so signing out revokes them before they expire.
type Service struct {
	repo   *Repository
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

// NewService creates an auth service signing tokens with secret.
func NewService(repo *Repository, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		repo:   repo,
		secret: []byte(secret),
		ttl:    ttl,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
}

// CreateUser registers a new user.
func (s *Service) CreateUser(ctx context.Context, email, password string) (*User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	existing, _, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrEmailTaken, email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := User{ID: uuid.NewString(), Email: email, CreatedAt: s.now().UTC()}
	if err := s.repo.CreateUser(ctx, u, hash); err != nil {
		return nil, err
	}
	return &u, nil
}

// SignIn checks the password and opens a new session.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}

	u, hash, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return Session{}, err
	}
	if u == nil {
		return Session{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	now := s.now().UTC()
	row := sessionRow{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.repo.CreateSession(ctx, row); err != nil {
		return Session{}, err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        row.ID,
		Subject:   u.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(row.ExpiresAt),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return Session{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	return Session{Token: signed, UserID: u.ID, ExpiresAt: row.ExpiresAt}, nil
}

// CurrentUser resolves a session token to its user. Any invalid, expired or
// revoked token yields ErrInvalidSession.
func (s *Service) CurrentUser(ctx context.Context, token string) (*User, error) {
	claims, err := s.parse(token, jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}

	row, err := s.repo.GetSession(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if row == nil || row.UserID != claims.Subject || !s.now().Before(row.ExpiresAt) {
		return nil, ErrInvalidSession
	}

	u, err := s.repo.GetUser(ctx, row.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidSession
	}
	return u, nil
}

// SignOut revokes the session behind token and returns the id of the user it
// belonged to. Expired tokens can still be signed out.
func (s *Service) SignOut(ctx context.Context, token string) (string, error) {
	claims, err := s.parse(token, jwt.WithoutClaimsValidation())
	if err != nil {
		return "", err
	}
	if err := s.repo.DeleteSession(ctx, claims.ID); err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// CleanupExpired deletes sessions past their expiry.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	return s.repo.CleanupExpired(ctx, s.now())
}

func (s *Service) parse(token string, opts ...jwt.ParserOption) (*jwt.RegisteredClaims, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}
	claims := &jwt.RegisteredClaims{}
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || claims.ID == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("invalid email address %q", email)
	}
	return email, nil
}
