// Package access registers users and logs them in.
//
// Users live in the "users" resource as username, password hash and role.
// Passwords are hashed with bcrypt; rows written by older versions with a
// plaintext password still log in.
package access

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"library-ledger/internal/logger"
	"library-ledger/internal/validation"
	"library-ledger/records"
)

// Errors. Every authentication failure wraps ErrAuth.
var (
	ErrAuth               = errors.New("authentication error")
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrAuth)
	ErrUsernameTaken      = fmt.Errorf("%w: username already exists", ErrAuth)
	ErrInvalidRole        = fmt.Errorf("%w: role must be admin or user", ErrAuth)
	ErrInvalidInput       = fmt.Errorf("%w: invalid input", ErrAuth)
	ErrForbidden          = errors.New("not permitted for this session")
)

// UsersSchema is the persisted user table.
var UsersSchema = records.Schema{
	Name: "users",
	Fields: []records.Field{
		{Name: "username", Kind: records.Identifier},
		{Name: "password", Kind: records.Text},
		{Name: "role", Kind: records.Text},
	},
}

type registration struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"oneof=admin user"`
}

// Service handles registration and login.
type Service struct {
	store records.Store
	log   *logger.Logger
	valid *validation.Validator

	hashCost int
	now      func() time.Time

	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithHashCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) Option { return func(s *Service) { s.hashCost = cost } }

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option { return func(s *Service) { s.log = l } }

// NewService returns a Service persisting users to store.
func NewService(store records.Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		log:      logger.Discard(),
		valid:    validation.New(),
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user. Usernames are unique and case-sensitive.
func (s *Service) Register(username, password, role string) error {
	in := registration{Username: username, Password: password, Role: strings.ToLower(role)}
	if err := s.valid.Validate(in); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) && verr.Has("role") {
			return ErrInvalidRole
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.store.Load(UsersSchema)
	if err != nil {
		return err
	}
	if slices.ContainsFunc(users, func(u records.Record) bool { return u[0] == username }) {
		return fmt.Errorf("register %q: %w", username, ErrUsernameTaken)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	users = append(users, records.Record{username, string(hash), in.Role})
	if err := s.store.Save(UsersSchema, users); err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	s.log.Info("user registered", "username", username, "role", in.Role)
	return nil
}

// Login checks the credentials and opens a session.
func (s *Service) Login(username, password string) (*Session, error) {
	users, err := s.store.Load(UsersSchema)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u[0] != username || !passwordMatches(u[1], password) {
			continue
		}
		role, err := ParseRole(u[2])
		if err != nil {
			return nil, err
		}
		sess := newSession(username, role, s.now())
		s.log.Info("login", "username", username, "role", role, "session", sess.ID)
		return sess, nil
	}
	s.log.Debug("login refused", "username", username)
	return nil, ErrInvalidCredentials
}

func passwordMatches(stored, given string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

func isBcryptHash(s string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
