// Package user persists user accounts, their settings and account keys.
package user

import "time"

// Password hash algorithms as stored in ibexa_user.password_hash_type.
const (
	HashMD5Password = 1
	HashMD5User     = 2
	HashMD5Site     = 3
	HashPlaintext   = 5
	HashBcrypt      = 6
	HashPHPDefault  = 7
)

// User is an account bound to a user content item.
type User struct {
	ID                int64
	Login             string
	Email             string
	PasswordHash      string
	HashAlgorithm     int
	PasswordUpdatedAt *time.Time
	Enabled           bool
	MaxLogin          int
}

// Token is an account key used for password resets and activation.
type Token struct {
	UserID  int64
	HashKey string
	Time    time.Time
}

// TokenUpdateStruct sets the account key of a user. An empty HashKey is
// generated.
type TokenUpdateStruct struct {
	UserID  int64 `validate:"required"`
	HashKey string
	Time    time.Time `validate:"required"`
}

// PasswordUpdateStruct replaces a user's password.
type PasswordUpdateStruct struct {
	UserID   int64  `validate:"required"`
	Password string `validate:"required,min=8,max=72"`
}
