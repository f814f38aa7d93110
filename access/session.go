package access

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is what a user registered as.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole accepts the persisted role names.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleUser:
		return Role(s), nil
	default:
		return "", fmt.Errorf("role %q: %w", s, ErrInvalidRole)
	}
}

// Capability is a set of things a session may do.
type Capability uint8

const (
	// CapBrowse covers viewing and searching the catalog, reports and e-books.
	CapBrowse Capability = 1 << iota
	// CapCirculate covers issuing and returning books.
	CapCirculate
	// CapManageCatalog covers adding and removing books and members.
	CapManageCatalog
)

// Capabilities returns everything the role grants.
func (r Role) Capabilities() Capability {
	switch r {
	case RoleAdmin:
		return CapBrowse | CapCirculate | CapManageCatalog
	case RoleUser:
		return CapBrowse | CapCirculate
	default:
		return 0
	}
}

// Session is the result of a successful login. It is passed explicitly to
// whatever needs to know who is acting; there is no process-wide current user.
type Session struct {
	ID        uuid.UUID
	Username  string
	Role      Role
	StartedAt time.Time

	caps Capability
}

func newSession(username string, role Role, now time.Time) *Session {
	return &Session{
		ID:        uuid.New(),
		Username:  username,
		Role:      role,
		StartedAt: now,
		caps:      role.Capabilities(),
	}
}

// Can reports whether the session holds every capability in c.
func (s *Session) Can(c Capability) bool {
	return s != nil && c != 0 && s.caps&c == c
}

// Require returns ErrForbidden unless the session holds c.
func (s *Session) Require(c Capability) error {
	if !s.Can(c) {
		return ErrForbidden
	}
	return nil
}
