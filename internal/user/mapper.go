package user

import "time"

// MapUsers converts rows into users.
func MapUsers(rows []UserRow) []User {
	out := make([]User, 0, len(rows))
	for _, row := range rows {
		u := User{
			ID:            row.ID,
			Login:         row.Login,
			Email:         row.Email,
			PasswordHash:  row.PasswordHash,
			HashAlgorithm: row.HashType,
			Enabled:       row.Enabled != 0,
			MaxLogin:      row.MaxLogin,
		}
		if row.PasswordUpdatedAt != nil {
			at := time.Unix(*row.PasswordUpdatedAt, 0).UTC()
			u.PasswordUpdatedAt = &at
		}
		out = append(out, u)
	}
	return out
}
