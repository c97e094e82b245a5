package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the principal model. EmailVerifiedAt and IsTwoFactorEnabled are the
// two account-state fields the sign-in gate reads; everything else belongs to
// the surrounding credential and profile machinery.
type User struct {
	bun.BaseModel      `bun:"table:users,alias:usr"`
	ID                 uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role               UserRole       `bun:"user_role,notnull" json:"user_role,omitempty"`
	Username           string         `bun:"username,notnull,unique" json:"username,omitempty"`
	Email              string         `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash       string         `bun:"password_hash" json:"password_hash,omitempty"`
	EmailVerifiedAt    *time.Time     `bun:"email_verified_at,nullzero" json:"email_verified_at,omitempty"`
	IsTwoFactorEnabled bool           `bun:"is_two_factor_enabled" json:"is_two_factor_enabled,omitempty"`
	LoginAttempts      int            `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt     *time.Time     `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt         *time.Time     `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	Metadata           map[string]any `bun:"metadata" json:"metadata,omitempty"`
	CreatedAt          *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt          *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt          *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// IsEmailVerified reports whether the account carries a verification
// timestamp. Absence means the account must never reach a session through the
// credentials path.
func (u *User) IsEmailVerified() bool {
	return u != nil && u.EmailVerifiedAt != nil
}

// AddMetadata will append information to a metadata attribute
func (u *User) AddMetadata(key string, val any) *User {
	if u.Metadata == nil {
		u.Metadata = make(map[string]any)
	}
	u.Metadata[key] = val
	return u
}

// TwoFactorConfirmation is a single-use record asserting that a second factor
// was satisfied for the current sign-in attempt. Created by the second-factor
// verification step, consumed (deleted) exactly once by the sign-in gate,
// never mutated otherwise.
type TwoFactorConfirmation struct {
	bun.BaseModel `bun:"table:two_factor_confirmations,alias:tfc"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,unique,type:uuid" json:"user_id,omitempty"`
	User          *User      `bun:"rel:has-one,join:user_id=id" json:"user,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// NewTwoFactorConfirmation builds a confirmation for the given user.
func NewTwoFactorConfirmation(userID uuid.UUID) *TwoFactorConfirmation {
	return &TwoFactorConfirmation{
		ID:     uuid.New(),
		UserID: userID,
	}
}

// LinkedAccount is an external provider identity attached to a local user.
type LinkedAccount struct {
	bun.BaseModel     `bun:"table:linked_accounts,alias:lnk"`
	ID                uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID            uuid.UUID      `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	Provider          string         `bun:"provider,notnull" json:"provider,omitempty"`
	ProviderAccountID string         `bun:"provider_account_id,notnull" json:"provider_account_id,omitempty"`
	Email             string         `bun:"email" json:"email,omitempty"`
	AccessToken       string         `bun:"access_token" json:"-"`
	RefreshToken      string         `bun:"refresh_token" json:"-"`
	TokenExpiresAt    *time.Time     `bun:"token_expires_at" json:"token_expires_at,omitempty"`
	ProfileData       map[string]any `bun:"profile_data,type:jsonb" json:"profile_data,omitempty"`
	CreatedAt         *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt         *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}
