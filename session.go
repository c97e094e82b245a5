package auth

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ Session = &SessionObject{}

// SessionUser is the application-visible identity slice of a session. Its
// fields mirror whatever the most recently enriched token carried: a
// partially enriched token yields a partially populated user.
type SessionUser struct {
	ID   string `json:"id,omitempty"`
	Role string `json:"role,omitempty"`
}

// SessionObject is the per-request materialized identity. It is derived from
// an identity token each time, always through the projection stage, and never
// persisted independently.
type SessionObject struct {
	User           *SessionUser   `json:"user,omitempty"`
	Audience       []string       `json:"audience,omitempty"`
	Issuer         string         `json:"issuer,omitempty"`
	IssuedAt       *time.Time     `json:"issued_at,omitempty"`
	ExpirationDate *time.Time     `json:"expiration_date,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
}

func (s *SessionObject) GetUserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}

func (s *SessionObject) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.GetUserID())
}

// HasUserUUID reports whether Session.GetUserUUID will succeed, which is the
// practical test for "did projection populate the user id".
func HasUserUUID(session Session) bool {
	if session == nil {
		return false
	}
	_, err := session.GetUserUUID()
	return err == nil
}

func (s *SessionObject) GetUserRole() string {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

func (s *SessionObject) GetAudience() []string {
	return s.Audience
}

func (s *SessionObject) GetIssuer() string {
	return s.Issuer
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func (s *SessionObject) GetData() map[string]any {
	return s.Data
}

// HasRole checks if the user has a specific role
func (s *SessionObject) HasRole(role string) bool {
	return s.getGlobalRole() == UserRole(role)
}

// IsAtLeast checks if the user's role is at least the minimum required role
func (s *SessionObject) IsAtLeast(minRole UserRole) bool {
	return s.getGlobalRole().IsAtLeast(minRole)
}

// getGlobalRole retrieves the session role with fallback to guest
func (s *SessionObject) getGlobalRole() UserRole {
	if s.User != nil {
		if role, valid := ParseRole(s.User.Role); valid {
			return role
		}
	}
	return RoleGuest
}

func (s *SessionObject) clone() *SessionObject {
	if s == nil {
		return nil
	}

	out := *s
	if s.User != nil {
		user := *s.User
		out.User = &user
	}
	if s.Audience != nil {
		out.Audience = append([]string(nil), s.Audience...)
	}
	if s.Data != nil {
		out.Data = make(map[string]any, len(s.Data))
		for k, v := range s.Data {
			out.Data[k] = v
		}
	}
	return &out
}

func (s SessionObject) String() string {
	issuedAt := "<nil>"
	if s.IssuedAt != nil {
		issuedAt = s.IssuedAt.Format(time.RFC1123)
	}
	return fmt.Sprintf(
		"user=%s role=%s aud=%v iss=%s iat=%s",
		s.GetUserID(),
		s.GetUserRole(),
		s.Audience,
		s.Issuer,
		issuedAt,
	)
}

// sessionFromClaims materializes a SessionObject from validated claims. The
// user substructure is created empty and then filled exclusively by the
// projection stage, so the session view can never diverge from the token it
// was derived from.
func sessionFromClaims(claims AuthClaims) (*SessionObject, error) {
	if claims == nil {
		return nil, ErrUnableToParseData
	}

	issuedAt := claims.IssuedAt()
	expiresAt := claims.Expires()

	session := &SessionObject{
		User:           &SessionUser{},
		Issuer:         issuerFromClaims(claims),
		IssuedAt:       &issuedAt,
		ExpirationDate: &expiresAt,
	}

	if jwtClaims, ok := claims.(*JWTClaims); ok {
		if jwtClaims.RegisteredClaims.Audience != nil {
			session.Audience = append([]string(nil), jwtClaims.RegisteredClaims.Audience...)
		}
		if len(jwtClaims.Metadata) > 0 {
			session.Data = map[string]any{"metadata": jwtClaims.Metadata}
		}
	}

	return ProjectSession(claims, session), nil
}

// issuerFromClaims extracts the issuer with fallback to the subject
func issuerFromClaims(claims AuthClaims) string {
	if jwtClaims, ok := claims.(*JWTClaims); ok {
		if jwtClaims.RegisteredClaims.Issuer != "" {
			return jwtClaims.RegisteredClaims.Issuer
		}
	}
	return claims.Subject()
}
