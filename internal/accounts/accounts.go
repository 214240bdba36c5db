// Package accounts registers users, checks their passwords and issues and
// verifies the bearer tokens every itinerary call carries.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pocketbase/dbx"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/wanderplan/internal/models"
	"github.com/yourorg/wanderplan/internal/validation"
)

const usersTable = "users"

// MinSecretLength is the shortest JWT secret accepted.
const MinSecretLength = 32

const devSecret = "dev-secret-change-me-dev-secret-change-me"

var (
	// ErrDuplicate means the username or email is taken.
	ErrDuplicate = errors.New("username or email already exists")
	// ErrInvalidCredentials covers both unknown users and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is any token that does not verify.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Claims is the verified content of a bearer token.
type Claims struct {
	UserID    string
	Username  string
	ExpiresAt time.Time
}

type userClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type userRow struct {
	ID           string `db:"id"`
	Username     string `db:"username"`
	Email        string `db:"email"`
	Name         string `db:"name"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    int64  `db:"created_at"`
}

// Service owns the users table and the signing secret.
type Service struct {
	db     *dbx.DB
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// ResolveSecret applies the development fallback and the length rule.
func ResolveSecret(secret string, production bool) (string, error) {
	if secret == "" {
		if production {
			return "", errors.New("JWT_SECRET must be set in production environment")
		}
		log.Println("⚠️ WARNING: Using default JWT secret (development only)")
		secret = devSecret
	}
	if len(secret) < MinSecretLength {
		return "", fmt.Errorf("JWT_SECRET must be at least %d characters long (current: %d)", MinSecretLength, len(secret))
	}
	return secret, nil
}

// NewService returns a Service signing tokens valid for ttl.
func NewService(db *dbx.DB, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{db: db, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Register creates a user and signs them in.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (models.LoginResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.ValidateRegister(req); err != nil {
		return models.LoginResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.LoginResponse{}, fmt.Errorf("failed to secure password: %w", err)
	}
	u := models.User{
		ID:        uuid.NewString(),
		Username:  req.Username,
		Email:     req.Email,
		Name:      req.Name,
		CreatedAt: s.now().UTC(),
	}
	_, err = s.db.Insert(usersTable, dbx.Params{
		"id":            u.ID,
		"username":      u.Username,
		"email":         u.Email,
		"name":          u.Name,
		"password_hash": string(hash),
		"created_at":    u.CreatedAt.UnixMilli(),
	}).WithContext(ctx).Execute()
	if err != nil {
		if isDuplicate(err) {
			return models.LoginResponse{}, ErrDuplicate
		}
		return models.LoginResponse{}, fmt.Errorf("insert user: %w", err)
	}
	log.Printf("✅ [AUTH] user registered: id=%s, username=%s", u.ID, u.Username)
	return s.respond(u)
}

// Login checks a username and password.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || strings.TrimSpace(req.Password) == "" {
		return models.LoginResponse{}, ErrInvalidCredentials
	}

	var row userRow
	err := s.db.Select("*").From(usersTable).Where(dbx.HashExp{"username": username}).WithContext(ctx).One(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.LoginResponse{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.LoginResponse{}, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(req.Password)); err != nil {
		return models.LoginResponse{}, ErrInvalidCredentials
	}
	return s.respond(models.User{ID: row.ID, Username: row.Username, Email: row.Email, Name: row.Name})
}

// ParseToken verifies a signed token and returns its claims.
func (s *Service) ParseToken(raw string) (Claims, error) {
	var claims userClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return Claims{UserID: claims.Subject, Username: claims.Username, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (s *Service) respond(u models.User) (models.LoginResponse, error) {
	token, expiresAt, err := s.issueToken(u.ID, u.Username)
	if err != nil {
		return models.LoginResponse{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return models.LoginResponse{
		Token:     token,
		User:      models.UserDTO{ID: u.ID, Username: u.Username, Name: u.Name, Email: u.Email},
		ExpiresAt: expiresAt,
	}, nil
}

func (s *Service) issueToken(userID, username string) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := userClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	return signed, expires.UTC().Truncate(time.Second), err
}

// MySQL says "Duplicate entry", SQLite "UNIQUE constraint failed".
func isDuplicate(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}
