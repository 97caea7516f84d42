package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"chatd/internal/domain"
)

// EventNewMessage is pushed to a recipient's live connection when a message
// addressed to them is persisted.
const EventNewMessage = "newMessage"

// Notifier pushes an event to a user's live real-time connection, if any.
// A push to an offline user fails with an error wrapping domain.ErrNotFound;
// the delivery path treats that as a normal outcome.
type Notifier interface {
	Push(userID int64, event string, payload any) error
}

// ChatService orchestrates message delivery: it persists a message under
// the correct conversation and only then pushes it to the recipient's live
// connection. The push never influences the caller-visible outcome.
type ChatService struct {
	conversations domain.ConversationRepository
	users         domain.UserRepository
	notifier      Notifier
	log           zerolog.Logger
}

func NewChatService(conversations domain.ConversationRepository, users domain.UserRepository, notifier Notifier, log zerolog.Logger) *ChatService {
	return &ChatService{
		conversations: conversations,
		users:         users,
		notifier:      notifier,
		log:           log,
	}
}

// SendMessage persists body as a message from sender to receiver and
// returns it. The real-time push to the receiver happens after the write
// is durable, on its own goroutine, and its failure is only logged: the
// message is already stored and will be fetched on the next poll.
func (s *ChatService) SendMessage(ctx context.Context, senderID, receiverID int64, body string) (*domain.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, domain.NewError(domain.ErrInvalidInput, "Message cannot be empty")
	}
	if senderID == receiverID {
		return nil, domain.NewError(domain.ErrInvalidInput, "Cannot send a message to yourself")
	}

	receiver, err := s.users.GetByID(ctx, receiverID)
	if err != nil {
		return nil, fmt.Errorf("get receiver: %w", err)
	}
	if receiver == nil {
		return nil, domain.NewError(domain.ErrNotFound, "Receiver not found")
	}

	conv, err := s.conversations.FindOrCreate(ctx, senderID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("find or create conversation: %w", err)
	}

	msg := &domain.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.conversations.AppendMessage(ctx, conv, msg); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	go s.pushToReceiver(msg)

	return msg, nil
}

// GetMessages returns the conversation between the two users in send
// order. A pair with no prior contact yields an empty slice, not an error.
func (s *ChatService) GetMessages(ctx context.Context, userID, otherUserID int64) ([]*domain.Message, error) {
	return s.conversations.ListMessages(ctx, userID, otherUserID)
}

func (s *ChatService) pushToReceiver(msg *domain.Message) {
	err := s.notifier.Push(msg.ReceiverID, EventNewMessage, msg)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		s.log.Debug().
			Int64("receiver_id", msg.ReceiverID).
			Int64("message_id", msg.ID).
			Msg("receiver offline, message stored only")
	default:
		s.log.Warn().
			Err(err).
			Int64("receiver_id", msg.ReceiverID).
			Int64("message_id", msg.ID).
			Msg("real-time push failed, message stored only")
	}
}
