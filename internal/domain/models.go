package domain

import "time"

// User represents an application user.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	FullName       string    `db:"full_name" json:"fullName"`
	Gender         string    `db:"gender" json:"gender"`
	ProfilePic     string    `db:"profile_pic" json:"profilePic"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// Conversation groups all messages between one unordered pair of users.
// UserLow/UserHigh hold the pair in canonical order (UserLow < UserHigh),
// which makes the pair itself the natural key.
type Conversation struct {
	ID        int64     `db:"id"`
	UserLow   int64     `db:"user_low"`
	UserHigh  int64     `db:"user_high"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// CanonicalPair returns the two user IDs in canonical (low, high) order.
func CanonicalPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// Message represents a single chat message. Messages are immutable once
// created and belong to exactly one conversation.
type Message struct {
	ID             int64     `db:"id" json:"id"`
	ConversationID int64     `db:"conversation_id" json:"conversationId"`
	SenderID       int64     `db:"sender_id" json:"senderId"`
	ReceiverID     int64     `db:"receiver_id" json:"receiverId"`
	Body           string    `db:"body" json:"message"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}
