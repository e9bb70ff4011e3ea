package user

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleLeader     Role = "leader"
	RolePlayer     Role = "player"
	RoleSuperAdmin Role = "super-admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleLeader, RolePlayer, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether the role may manage competitions, challenges and players.
func (r Role) IsAdmin() bool {
	return r == RoleLeader || r == RoleSuperAdmin
}

// Ranked reports whether users of this role appear on the leaderboard.
func (r Role) Ranked() bool {
	return r == RolePlayer
}

// User is an account on the platform. PasswordHash never leaves the service.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Avatar       string
	Role         Role
	Level        int
	XP           int
	CreatedAt    time.Time
	LastLoginAt  *time.Time
	Version      int64
}

func (u User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(u.Username) == "" {
		return fmt.Errorf("username is required")
	}
	if u.PasswordHash == "" {
		return fmt.Errorf("password credential is required")
	}
	if !u.Role.Valid() {
		return fmt.Errorf("invalid role %q", u.Role)
	}
	if u.Level < 1 {
		return fmt.Errorf("level must be >= 1")
	}
	if u.XP < 0 {
		return fmt.Errorf("xp must be >= 0")
	}

	return nil
}

// MatchesUsername compares usernames the way login does: trimmed, case-insensitive.
func (u User) MatchesUsername(username string) bool {
	return strings.EqualFold(strings.TrimSpace(u.Username), strings.TrimSpace(username))
}
