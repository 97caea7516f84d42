package domain

import (
	"context"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	ListExcept(ctx context.Context, userID int64) ([]*User, error)
}

// ConversationRepository defines persistence operations for conversations
// and the messages they own.
type ConversationRepository interface {
	// FindOrCreate returns the conversation for the unordered {a, b} pair,
	// creating it if absent. Safe under concurrent first-contact sends.
	FindOrCreate(ctx context.Context, a, b int64) (*Conversation, error)
	// AppendMessage persists m under conv and bumps the conversation's
	// updated_at in a single transaction.
	AppendMessage(ctx context.Context, conv *Conversation, m *Message) error
	// ListMessages returns the pair's messages in send order, or an empty
	// slice when no conversation exists.
	ListMessages(ctx context.Context, a, b int64) ([]*Message, error)
}
