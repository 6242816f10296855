package domain

import "time"

// Role names recognized across the storefront.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// User represents the authenticated identity returned by the identity service.
type User struct {
	ID        string            `json:"id"`
	Email     string            `json:"email,omitempty"`
	Name      string            `json:"name,omitempty"`
	Roles     []string          `json:"roles,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (u *User) HasRole(role string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

// Clone returns a deep copy so callers can hand out snapshots without
// sharing mutable state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	if u.Roles != nil {
		out.Roles = append([]string(nil), u.Roles...)
	}
	if u.Metadata != nil {
		out.Metadata = make(map[string]string, len(u.Metadata))
		for k, v := range u.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

// UserPatch carries a shallow local update; nil fields are left untouched.
type UserPatch struct {
	Email    *string           `json:"email,omitempty"`
	Name     *string           `json:"name,omitempty"`
	Roles    []string          `json:"roles,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Apply merges the patch into the user in place.
func (p UserPatch) Apply(u *User) {
	if u == nil {
		return
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Roles != nil {
		u.Roles = append([]string(nil), p.Roles...)
	}
	for k, v := range p.Metadata {
		if u.Metadata == nil {
			u.Metadata = make(map[string]string)
		}
		u.Metadata[k] = v
	}
	u.UpdatedAt = time.Now()
}
