package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"pemiyos/internal/models"
	"pemiyos/internal/schema"
	"pemiyos/internal/utils"
)

// Claims is the payload of a session token.
type Claims struct {
	UserID string `json:"user_id"`
	NIS    string `json:"nis"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string          `json:"token"`
	User  models.Document `json:"user"`
}

// AuthService authenticates users and issues and verifies session tokens.
type AuthService struct {
	db      *gorm.DB
	docs    *DocumentService
	secret  []byte
	ttl     time.Duration
	revoker Revoker
	log     zerolog.Logger
}

func NewAuthService(db *gorm.DB, docs *DocumentService, secret string, ttl time.Duration, revoker Revoker, log zerolog.Logger) *AuthService {
	if revoker == nil {
		revoker = NoopRevoker{}
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		db:      db,
		docs:    docs,
		secret:  []byte(secret),
		ttl:     ttl,
		revoker: revoker,
		log:     log.With().Str("component", "auth").Logger(),
	}
}

// Authenticate checks a nis/password pair and returns a signed token with
// the user's document.
func (s *AuthService) Authenticate(ctx context.Context, nis, password string) (*LoginResult, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	err := db.Where("nis = ? AND deleted_at IS NULL", nis).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, Internal(err, "Authentication failed")
	}
	if user.Status != models.StatusActive {
		return nil, ErrInactiveAccount
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	err = db.Model(&user).UpdateColumns(map[string]any{"last_login_at": now, "updated_at": now}).Error
	if err != nil {
		return nil, Internal(err, "Authentication failed")
	}
	user.LastLoginAt = &now
	user.UpdatedAt = now

	token, err := s.issue(&user, now)
	if err != nil {
		return nil, Internal(err, "Failed to sign token")
	}

	doc, err := s.docs.document(schema.Users, &user)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("user logged in")
	return &LoginResult{Token: token, User: doc}, nil
}

func (s *AuthService) issue(user *models.User, now time.Time) (string, error) {
	claims := Claims{
		UserID: user.ID,
		NIS:    user.NIS,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// VerifyToken checks signature, expiry and revocation of a token.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	revoked, err := s.revoker.Revoked(ctx, claims.ID)
	if err != nil {
		return nil, Internal(err, "Failed to check token")
	}
	if revoked {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// UserByID loads the live, active user a token refers to.
func (s *AuthService) UserByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrUserNotFound
	}
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ? AND deleted_at IS NULL", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, Internal(err, "Failed to load user")
	}
	if user.Status != models.StatusActive {
		return nil, ErrInactiveAccount
	}
	return &user, nil
}

// Profile returns the document of a user without its password.
func (s *AuthService) Profile(ctx context.Context, user *models.User) (models.Document, error) {
	return s.docs.document(schema.Users, user)
}

// Logout revokes the token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ID == "" {
		return nil
	}
	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if err := s.revoker.Revoke(ctx, claims.ID, ttl); err != nil {
		return Internal(err, "Failed to revoke token")
	}
	return nil
}
