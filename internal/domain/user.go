package domain

import "time"

// User is an internal account: a dispatch coordinator or field technician.
// Customers are not accounts; they are identified on the public surface by
// (phone, ticket number) or by their message-channel user id.
type User struct {
	ID            string
	Name          string
	Username      string
	PasswordHash  string
	Role          Role
	Phone         string
	ChannelUserID string
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Actor converts the account into the tagged actor used by workflow checks.
func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Name: u.Name, Phone: u.Phone, Role: u.Role}
}
