package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"chatd/internal/domain"
)

type ConversationRepo struct {
	db *sql.DB
}

func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

var _ domain.ConversationRepository = (*ConversationRepo)(nil)

// FindOrCreate returns the conversation for the unordered {a, b} pair,
// creating it on first contact. The insert uses ON CONFLICT DO NOTHING
// against the unique pair index, so two concurrent first messages between
// the same pair converge on a single row: the loser of the race simply
// re-selects the winner's conversation.
func (r *ConversationRepo) FindOrCreate(ctx context.Context, a, b int64) (*domain.Conversation, error) {
	low, high := domain.CanonicalPair(a, b)

	conv, err := r.findByPair(ctx, low, high)
	if err != nil {
		return nil, err
	}
	if conv != nil {
		return conv, nil
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO conversations (user_low, user_high, created_at, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (user_low, user_high) DO NOTHING
	`, low, high)
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}

	conv, err = r.findByPair(ctx, low, high)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, fmt.Errorf("conversation for pair (%d,%d) missing after upsert", low, high)
	}
	return conv, nil
}

// AppendMessage inserts the message and touches the conversation in one
// transaction, so a committed message always implies an updated
// conversation row. Partial success never reaches the caller.
func (r *ConversationRepo) AppendMessage(ctx context.Context, conv *domain.Conversation, m *domain.Message) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO messages (conversation_id, sender_id, receiver_id, body, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, conv.ID, m.SenderID, m.ReceiverID, m.Body, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE conversations SET updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, conv.ID); err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	m.ID = id
	m.ConversationID = conv.ID
	return nil
}

// ListMessages returns the pair's messages in send order. A pair with no
// prior conversation yields an empty slice, not an error.
func (r *ConversationRepo) ListMessages(ctx context.Context, a, b int64) ([]*domain.Message, error) {
	low, high := domain.CanonicalPair(a, b)

	query := `
		SELECT m.id, m.conversation_id, m.sender_id, m.receiver_id, m.body, m.created_at
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.user_low = ? AND c.user_high = ?
		ORDER BY m.id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, low, high)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	msgs := []*domain.Message{}
	for rows.Next() {
		m := &domain.Message{}
		if err := rows.Scan(
			&m.ID,
			&m.ConversationID,
			&m.SenderID,
			&m.ReceiverID,
			&m.Body,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (r *ConversationRepo) findByPair(ctx context.Context, low, high int64) (*domain.Conversation, error) {
	c := &domain.Conversation{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_low, user_high, created_at, updated_at
		FROM conversations
		WHERE user_low = ? AND user_high = ?
	`, low, high).Scan(
		&c.ID,
		&c.UserLow,
		&c.UserHigh,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	return c, nil
}
