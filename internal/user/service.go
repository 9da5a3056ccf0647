package user

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/contentcore/contentcore/internal/shared"
)

// Service implements user account use cases.
type Service struct {
	gateway Gateway
	logger  *slog.Logger
	now     func() time.Time
}

// NewService builds a Service. logger may be nil.
func NewService(gateway Gateway, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gateway: gateway, logger: logger, now: time.Now}
}

func single(rows []UserRow, what string, key any) (User, error) {
	users := MapUsers(rows)
	switch len(users) {
	case 0:
		return User{}, shared.NewNotFound(what, key)
	case 1:
		return users[0], nil
	default:
		return User{}, shared.LogicError("found %d users for %s '%v'", len(users), strings.ToLower(what), key)
	}
}

// Load loads a user by content id.
func (s *Service) Load(ctx context.Context, userID int64) (User, error) {
	rows, err := s.gateway.Load(ctx, userID)
	if err != nil {
		return User{}, err
	}
	return single(rows, "User", userID)
}

// LoadByLogin loads a user by login, ignoring case.
func (s *Service) LoadByLogin(ctx context.Context, login string) (User, error) {
	if login == "" {
		return User{}, shared.NewInvalidArgument("login", "must not be empty")
	}
	rows, err := s.gateway.LoadByLogin(ctx, login)
	if err != nil {
		return User{}, err
	}
	return single(rows, "Login", login)
}

// LoadByEmail loads the single user with an email address.
func (s *Service) LoadByEmail(ctx context.Context, email string) (User, error) {
	rows, err := s.gateway.LoadByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	return single(rows, "Email", email)
}

// LoadUsersByEmail returns every user with an email address.
func (s *Service) LoadUsersByEmail(ctx context.Context, email string) ([]User, error) {
	rows, err := s.gateway.LoadByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return MapUsers(rows), nil
}

// LoadUserByToken loads the user owning an unexpired account key.
func (s *Service) LoadUserByToken(ctx context.Context, hashKey string) (User, error) {
	if hashKey == "" {
		return User{}, shared.NewInvalidArgument("hashKey", "must not be empty")
	}
	rows, err := s.gateway.LoadUserByToken(ctx, hashKey, s.now().Unix())
	if err != nil {
		return User{}, err
	}
	return single(rows, "UserToken", hashKey)
}

// UpdateUserToken replaces the account key of a user.
func (s *Service) UpdateUserToken(ctx context.Context, us TokenUpdateStruct) (Token, error) {
	if err := shared.ValidateStruct(us); err != nil {
		return Token{}, err
	}
	if us.HashKey == "" {
		us.HashKey = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	err := s.gateway.WithTx(ctx, func(g Gateway) error {
		return g.UpdateUserToken(ctx, TokenRecord{UserID: us.UserID, HashKey: us.HashKey, Time: us.Time.Unix()})
	})
	if err != nil {
		return Token{}, err
	}
	return Token{UserID: us.UserID, HashKey: us.HashKey, Time: us.Time}, nil
}

// ExpireUserToken invalidates an account key.
func (s *Service) ExpireUserToken(ctx context.Context, hashKey string) error {
	return s.gateway.ExpireUserToken(ctx, hashKey)
}

// UpdatePassword stores a bcrypt hash of the new password.
func (s *Service) UpdatePassword(ctx context.Context, us PasswordUpdateStruct) error {
	if err := shared.ValidateStruct(us); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(us.Password), bcrypt.DefaultCost)
	if err != nil {
		return shared.NewInvalidArgument("password", "%v", err)
	}
	return s.gateway.WithTx(ctx, func(g Gateway) error {
		rows, err := g.Load(ctx, us.UserID)
		if err != nil {
			return err
		}
		if _, err := single(rows, "User", us.UserID); err != nil {
			return err
		}
		return g.UpdatePassword(ctx, us.UserID, string(hash), HashBcrypt, s.now().Unix())
	})
}

// CheckPassword authenticates a login. Disabled accounts, unknown logins,
// non-bcrypt hashes and wrong passwords all yield ErrUnauthorized.
func (s *Service) CheckPassword(ctx context.Context, login, password string) (User, error) {
	u, err := s.LoadByLogin(ctx, login)
	if errors.Is(err, shared.ErrNotFound) {
		return User{}, shared.ErrUnauthorized
	}
	if err != nil {
		return User{}, err
	}
	if !u.Enabled || u.HashAlgorithm != HashBcrypt {
		s.logger.Warn("password check refused", slog.Int64("user_id", u.ID),
			slog.Bool("enabled", u.Enabled), slog.Int("hash_type", u.HashAlgorithm))
		return User{}, shared.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, shared.ErrUnauthorized
	}
	return u, nil
}

// Delete removes a user with its settings and account keys.
func (s *Service) Delete(ctx context.Context, userID int64) error {
	return s.gateway.WithTx(ctx, func(g Gateway) error {
		return g.Delete(ctx, userID)
	})
}
