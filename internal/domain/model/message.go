package model

import "time"

// SystemSenderID is the user id messages from the platform are attributed to.
const SystemSenderID int64 = 1

// Message is an in-app notification. The billing core only writes admin
// messages (payment outcome notices); conversation features live elsewhere.
type Message struct {
	ID              int64
	SenderUserID    int64
	RecipientUserID int64
	Content         string
	IsRead          bool
	IsAdminMessage  bool
	CreatedAt       time.Time
}
