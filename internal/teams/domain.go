package teams

import (
	"errors"
	"fmt"
	"time"
)

// Role orders a member's capabilities within a team.
type Role int

const (
	// RoleViewer can read inventory data.
	RoleViewer Role = iota
	// RoleEditor can post ledger entries and edit catalog data.
	RoleEditor
	// RoleAdmin can manage members and webhooks.
	RoleAdmin
	// RoleOwner can delete the team.
	RoleOwner
)

var roleNames = map[Role]string{
	RoleViewer: "viewer",
	RoleEditor: "editor",
	RoleAdmin:  "admin",
	RoleOwner:  "owner",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// MarshalJSON renders the role name.
func (r Role) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

// UnmarshalJSON parses a role name.
func (r *Role) UnmarshalJSON(data []byte) error {
	name := string(data)
	if len(name) >= 2 && name[0] == '"' && name[len(name)-1] == '"' {
		name = name[1 : len(name)-1]
	}
	parsed, err := ParseRole(name)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ErrUnknownRole indicates a role name outside the ordered set.
var ErrUnknownRole = errors.New("teams: unknown role")

// ParseRole maps a role name to its ordered value.
func ParseRole(name string) (Role, error) {
	for role, n := range roleNames {
		if n == name {
			return role, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRole, name)
}

// Meets reports whether the role grants at least the given minimum.
func (r Role) Meets(min Role) bool {
	return r >= min
}

// Team is the tenant boundary for all inventory data.
type Team struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Membership associates a user with a team at a role.
type Membership struct {
	ID        int64     `json:"id"`
	TeamID    int64     `json:"team_id"`
	UserID    int64     `json:"user_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrNotMember indicates the user has no membership on the team.
var ErrNotMember = errors.New("teams: user is not a member of this team")
