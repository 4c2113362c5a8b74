package store

import "time"

// User is the persisted user record. Email is stored case-normalized and is
// globally unique; PasswordHash is the hasher output and never the
// plaintext. ResetToken and ResetTokenExpiry are set together while a reset
// request is outstanding and cleared together on redemption. An expired
// token may linger on the record, so redemption always checks expiry
// explicitly.
type User struct {
	UserID           string     `json:"userId"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	Name             string     `json:"name"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	ResetToken       *string    `json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`
}

// clone returns a copy of the user so store internals never alias
// caller-held records.
func (u *User) clone() *User {
	c := *u
	if u.ResetToken != nil {
		tok := *u.ResetToken
		c.ResetToken = &tok
	}
	if u.ResetTokenExpiry != nil {
		exp := *u.ResetTokenExpiry
		c.ResetTokenExpiry = &exp
	}
	return &c
}
