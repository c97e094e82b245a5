package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents structured JWT claims with role-aware helpers
type AuthClaims interface {
	Subject() string
	UserID() string
	Role() string
	HasRole(role string) bool
	IsAtLeast(minRole string) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete identity token carried across requests. Subject
// is set on first mint; UserRole stays empty until the injection stage of the
// enrichment pipeline fills it from the directory.
type JWTClaims struct {
	jwt.RegisteredClaims
	UID      string         `json:"uid,omitempty"`
	UserRole string         `json:"role,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"` // extension payload
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Role returns the global role
func (c *JWTClaims) Role() string {
	return c.UserRole
}

// HasRole checks if the user has a specific role
func (c *JWTClaims) HasRole(role string) bool {
	return c.UserRole == role
}

// IsAtLeast checks if the user's role is at least the minimum required role
func (c *JWTClaims) IsAtLeast(minRole string) bool {
	return UserRole(c.UserRole).IsAtLeast(UserRole(minRole))
}

// CanRead checks if the user can read resources
func (c *JWTClaims) CanRead() bool {
	return UserRole(c.UserRole).CanRead()
}

// CanEdit checks if the user can edit resources
func (c *JWTClaims) CanEdit() bool {
	return UserRole(c.UserRole).CanEdit()
}

// CanCreate checks if the user can create resources
func (c *JWTClaims) CanCreate() bool {
	return UserRole(c.UserRole).CanCreate()
}

// CanDelete checks if the user can delete resources
func (c *JWTClaims) CanDelete() bool {
	return UserRole(c.UserRole).CanDelete()
}

// ClaimsMetadata exposes metadata extensions for optional context enrichment.
func (c *JWTClaims) ClaimsMetadata() map[string]any {
	return c.Metadata
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// clone returns a value copy so enrichment stages can stay
// immutable-in/immutable-out.
func (c *JWTClaims) clone() *JWTClaims {
	if c == nil {
		return nil
	}

	out := *c
	if c.Metadata != nil {
		out.Metadata = make(map[string]any, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	if c.RegisteredClaims.Audience != nil {
		out.RegisteredClaims.Audience = append(jwt.ClaimStrings(nil), c.RegisteredClaims.Audience...)
	}
	return &out
}
