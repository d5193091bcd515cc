// Package auth implements the fixed two-account credential check and the
// session record. There is no registration: the operator accounts are static.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"pharmapos/m/domain"
	"pharmapos/m/internal/kv"
)

const sessionKey = "pharma_user_session"

// ErrInvalidCredentials rejects a login with an unknown username or a wrong
// password. Callers get no detail on which.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Session is an authenticated operator plus their bearer token.
type Session struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

type account struct {
	user domain.User
	hash []byte
}

// Service validates logins against the static account table and keeps the
// current-session record in the key-value store.
type Service struct {
	store    *kv.Store
	secret   string
	accounts map[string]account
}

// New constructs a Service. The fixed demo credentials are hashed at
// construction so Login still goes through a bcrypt comparison.
func New(store *kv.Store, secret string) *Service {
	s := &Service{
		store:    store,
		secret:   secret,
		accounts: make(map[string]account),
	}
	s.register(domain.User{ID: "u1", Username: "admin", Name: "Dr. Smith", Role: domain.RoleAdmin}, "admin123")
	s.register(domain.User{ID: "u2", Username: "staff", Name: "John Doe", Role: domain.RoleStaff}, "staff123")
	return s
}

func (s *Service) register(user domain.User, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("unable to hash credentials for %s: %v", user.Username, err)
	}
	s.accounts[user.Username] = account{user: user, hash: hash}
}

// Login checks the credentials, persists the current-user record and returns
// the session with a signed token.
func (s *Service) Login(username, password string) (Session, error) {
	acc, ok := s.accounts[username]
	if !ok {
		return Session{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(acc.hash, []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}

	raw, err := json.Marshal(acc.user)
	if err != nil {
		return Session{}, fmt.Errorf("encode session record: %w", err)
	}
	if err := s.store.Set(sessionKey, raw); err != nil {
		return Session{}, err
	}

	token, err := s.generateToken(acc.user)
	if err != nil {
		return Session{}, err
	}
	return Session{User: acc.user, Token: token}, nil
}

// Logout clears the current-session record. Logging out while not logged in
// is a no-op.
func (s *Service) Logout() error {
	return s.store.Delete(sessionKey)
}

// CurrentUser reads the persisted session record; the bool reports whether
// anyone is logged in.
func (s *Service) CurrentUser() (domain.User, bool, error) {
	raw, ok, err := s.store.Get(sessionKey)
	if err != nil || !ok {
		return domain.User{}, false, err
	}
	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return domain.User{}, false, fmt.Errorf("decode session record: %w", err)
	}
	return user, true, nil
}

// Claims carried by a session token.
type Claims struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

func (s *Service) generateToken(user domain.User) (string, error) {
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// VerifyToken parses and validates a bearer token.
func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
