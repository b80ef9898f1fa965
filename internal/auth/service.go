package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/airalert/airalert/internal/notification"
	"github.com/airalert/airalert/internal/user"
	"github.com/airalert/airalert/internal/validation"
)

// Predefined service errors.
var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrEmailTaken         = user.ErrEmailTaken
)

// Onboarder creates the notification data of a new account.
type Onboarder interface {
	CreateDefaults(ctx context.Context, userID string, enabled bool) error
	Seed(ctx context.Context, userID string, items []notification.Notification) error
}

// ServiceConfig holds configuration for the auth service.
type ServiceConfig struct {
	JWTService    *JWTService
	Users         user.Repository
	Notifications Onboarder
	Revocations   *RevocationList
	Logger        zerolog.Logger

	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int

	// Now returns the current time. Default: time.Now
	Now func() time.Time

	// NewID generates user IDs. Default: uuid.NewString
	NewID func() string
}

// Service provides registration, login and session validation.
type Service struct {
	jwt           *JWTService
	users         user.Repository
	notifications Onboarder
	revocations   *RevocationList
	logger        zerolog.Logger
	bcryptCost    int
	now           func() time.Time
	newID         func() string
}

// NewService creates a new auth service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Service{
		jwt:           cfg.JWTService,
		users:         cfg.Users,
		notifications: cfg.Notifications,
		revocations:   cfg.Revocations,
		logger:        cfg.Logger,
		bcryptCost:    cfg.BcryptCost,
		now:           now,
		newID:         newID,
	}
}

// Register creates an account with default notification preferences and
// the welcome notifications.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*user.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Region = strings.TrimSpace(req.Region)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, user.ErrUserNotFound) {
		return nil, fmt.Errorf("checking email: %w", err)
	}

	hash, err := HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	enabled := true
	if req.NotificationsEnabled != nil {
		enabled = *req.NotificationsEnabled
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	u := &user.User{
		ID:                   s.newID(),
		Name:                 req.Name,
		Email:                req.Email,
		Region:               req.Region,
		City:                 strings.TrimSpace(req.City),
		NotificationsEnabled: enabled,
		UserType:             req.UserType,
		PasswordHash:         hash,
		CreatedAt:            now,
	}
	if req.UserType == user.TypePatient {
		u.Age = req.Age
		u.Gender = req.Gender
		u.Weight = req.Weight
		u.HealthRecord = req.HealthRecord
	}

	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	if err := s.notifications.CreateDefaults(ctx, u.ID, enabled); err != nil {
		return nil, fmt.Errorf("creating default preferences: %w", err)
	}
	if err := s.notifications.Seed(ctx, u.ID, notification.Welcome(u.Region, now)); err != nil {
		return nil, fmt.Errorf("creating welcome notifications: %w", err)
	}

	s.logger.Info().
		Str("user_id", u.ID).
		Str("user_type", string(u.UserType)).
		Str("region", u.Region).
		Msg("user registered")

	return u, nil
}

// Login checks the password and issues an access token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, user.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}

	ok, err := CheckPassword(u.PasswordHash, req.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Info().Str("user_id", u.ID).Msg("login rejected")
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateAccessToken(u.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", u.ID).Msg("login succeeded")
	return &Session{User: u, AccessToken: token}, nil
}

// ValidateAccessToken validates a bearer token, including revocation, and
// returns the user ID.
func (s *Service) ValidateAccessToken(ctx context.Context, token string) (string, error) {
	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return "", err
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return "", fmt.Errorf("checking revocation: %w", err)
	}
	if revoked {
		return "", ErrTokenRevoked
	}

	return claims.UserID, nil
}

// Logout revokes token until it expires. Invalid or expired tokens are
// ignored; only a store failure is reported.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil
	}

	if err := s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}

	s.logger.Info().Str("user_id", claims.UserID).Msg("logged out")
	return nil
}
