package user

import "context"

// UserRow is one row of the user/setting join. PasswordUpdatedAt is a unix
// timestamp.
type UserRow struct {
	ID                int64
	Login             string
	Email             string
	PasswordHash      string
	HashType          int
	PasswordUpdatedAt *int64
	Enabled           int
	MaxLogin          int
}

// TokenRecord is the persisted account key.
type TokenRecord struct {
	UserID  int64
	HashKey string
	Time    int64
}

// Gateway is the SQL boundary for users.
type Gateway interface {
	WithTx(ctx context.Context, fn func(Gateway) error) error

	Load(ctx context.Context, userID int64) ([]UserRow, error)
	LoadByLogin(ctx context.Context, login string) ([]UserRow, error)
	LoadByEmail(ctx context.Context, email string) ([]UserRow, error)
	// LoadUserByToken returns the user owning a hash key that expires after
	// now.
	LoadUserByToken(ctx context.Context, hashKey string, now int64) ([]UserRow, error)
	UpdateUserToken(ctx context.Context, token TokenRecord) error
	ExpireUserToken(ctx context.Context, hashKey string) error
	UpdatePassword(ctx context.Context, userID int64, hash string, hashType int, updatedAt int64) error
	Delete(ctx context.Context, userID int64) error
}
