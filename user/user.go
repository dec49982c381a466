package user

import "github.com/gopistolet/postbus/smtp"

// User is a locally known mailbox, persisted in the user database.
type User struct {
	Name    string
	Mailbox smtp.Mailbox
}
