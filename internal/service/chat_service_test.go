package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chatd/internal/domain"
	"chatd/internal/service"
)

type MockConversationRepo struct {
	mock.Mock
}

func (m *MockConversationRepo) FindOrCreate(ctx context.Context, a, b int64) (*domain.Conversation, error) {
	args := m.Called(ctx, a, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

func (m *MockConversationRepo) AppendMessage(ctx context.Context, conv *domain.Conversation, msg *domain.Message) error {
	args := m.Called(ctx, conv, msg)
	if args.Error(0) == nil {
		msg.ID = 101 // simulate the store assigning an identity
		msg.ConversationID = conv.ID
	}
	return args.Error(0)
}

func (m *MockConversationRepo) ListMessages(ctx context.Context, a, b int64) ([]*domain.Message, error) {
	args := m.Called(ctx, a, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}

// knownReceiver returns a user repo that resolves the given receiver.
func knownReceiver(id int64) *MockUserRepo {
	users := new(MockUserRepo)
	users.On("GetByID", mock.Anything, id).Return(&domain.User{ID: id, Username: "receiver"}, nil)
	return users
}

type pushedEvent struct {
	userID  int64
	event   string
	payload any
}

// recordingNotifier captures pushes on a channel so tests can wait for the
// fire-and-forget goroutine.
type recordingNotifier struct {
	pushes chan pushedEvent
	err    error
}

func newRecordingNotifier(err error) *recordingNotifier {
	return &recordingNotifier{pushes: make(chan pushedEvent, 8), err: err}
}

func (n *recordingNotifier) Push(userID int64, event string, payload any) error {
	n.pushes <- pushedEvent{userID: userID, event: event, payload: payload}
	return n.err
}

func (n *recordingNotifier) waitForPush(t *testing.T) pushedEvent {
	t.Helper()
	select {
	case p := <-n.pushes:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for push")
		return pushedEvent{}
	}
}

func (n *recordingNotifier) assertNoMorePushes(t *testing.T) {
	t.Helper()
	select {
	case p := <-n.pushes:
		t.Fatalf("unexpected extra push: %+v", p)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSendMessage(t *testing.T) {
	conv := &domain.Conversation{ID: 9, UserLow: 1, UserHigh: 2}

	t.Run("PersistsThenPushesToReceiver", func(t *testing.T) {
		repo := new(MockConversationRepo)
		notifier := newRecordingNotifier(nil)
		svc := service.NewChatService(repo, knownReceiver(2), notifier, zerolog.Nop())

		repo.On("FindOrCreate", mock.Anything, int64(1), int64(2)).Return(conv, nil)
		repo.On("AppendMessage", mock.Anything, conv, mock.Anything).Return(nil)

		msg, err := svc.SendMessage(context.Background(), 1, 2, "hey there")
		require.NoError(t, err)
		assert.Equal(t, int64(101), msg.ID)
		assert.Equal(t, int64(9), msg.ConversationID)
		assert.Equal(t, int64(1), msg.SenderID)
		assert.Equal(t, int64(2), msg.ReceiverID)
		assert.Equal(t, "hey there", msg.Body)
		assert.False(t, msg.CreatedAt.IsZero())

		p := notifier.waitForPush(t)
		assert.Equal(t, int64(2), p.userID)
		assert.Equal(t, service.EventNewMessage, p.event)
		pushed, ok := p.payload.(*domain.Message)
		require.True(t, ok)
		// the push carries the persisted message, identity included
		assert.Equal(t, msg, pushed)
		notifier.assertNoMorePushes(t)
	})

	t.Run("EmptyBodyRejectedBeforeStorage", func(t *testing.T) {
		repo := new(MockConversationRepo)
		users := new(MockUserRepo)
		notifier := newRecordingNotifier(nil)
		svc := service.NewChatService(repo, users, notifier, zerolog.Nop())

		for _, body := range []string{"", "   ", "\n\t"} {
			msg, err := svc.SendMessage(context.Background(), 1, 2, body)
			assert.Nil(t, msg)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		}
		users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "FindOrCreate", mock.Anything, mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "AppendMessage", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("UnknownReceiverRejectedBeforeConversation", func(t *testing.T) {
		repo := new(MockConversationRepo)
		users := new(MockUserRepo)
		notifier := newRecordingNotifier(nil)
		svc := service.NewChatService(repo, users, notifier, zerolog.Nop())

		users.On("GetByID", mock.Anything, int64(404)).Return(nil, nil)

		msg, err := svc.SendMessage(context.Background(), 1, 404, "anyone there?")
		assert.Nil(t, msg)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		repo.AssertNotCalled(t, "FindOrCreate", mock.Anything, mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "AppendMessage", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("SelfMessageRejected", func(t *testing.T) {
		repo := new(MockConversationRepo)
		notifier := newRecordingNotifier(nil)
		svc := service.NewChatService(repo, new(MockUserRepo), notifier, zerolog.Nop())

		msg, err := svc.SendMessage(context.Background(), 1, 1, "note to self")
		assert.Nil(t, msg)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("OfflineReceiverStillSucceeds", func(t *testing.T) {
		repo := new(MockConversationRepo)
		notifier := newRecordingNotifier(domain.ErrNotFound)
		svc := service.NewChatService(repo, knownReceiver(2), notifier, zerolog.Nop())

		repo.On("FindOrCreate", mock.Anything, int64(1), int64(2)).Return(conv, nil)
		repo.On("AppendMessage", mock.Anything, conv, mock.Anything).Return(nil)

		msg, err := svc.SendMessage(context.Background(), 1, 2, "hello?")
		require.NoError(t, err)
		assert.Equal(t, int64(101), msg.ID)
		notifier.waitForPush(t)
	})

	t.Run("PushFailureSwallowed", func(t *testing.T) {
		repo := new(MockConversationRepo)
		notifier := newRecordingNotifier(errors.New("connection closed"))
		svc := service.NewChatService(repo, knownReceiver(2), notifier, zerolog.Nop())

		repo.On("FindOrCreate", mock.Anything, int64(1), int64(2)).Return(conv, nil)
		repo.On("AppendMessage", mock.Anything, conv, mock.Anything).Return(nil)

		msg, err := svc.SendMessage(context.Background(), 1, 2, "still durable")
		require.NoError(t, err)
		require.NotNil(t, msg)
		notifier.waitForPush(t)
	})

	t.Run("StorageFailureMeansNoPush", func(t *testing.T) {
		repo := new(MockConversationRepo)
		notifier := newRecordingNotifier(nil)
		svc := service.NewChatService(repo, knownReceiver(2), notifier, zerolog.Nop())

		repo.On("FindOrCreate", mock.Anything, int64(1), int64(2)).Return(conv, nil)
		repo.On("AppendMessage", mock.Anything, conv, mock.Anything).Return(errors.New("disk full"))

		msg, err := svc.SendMessage(context.Background(), 1, 2, "lost")
		assert.Nil(t, msg)
		assert.Error(t, err)
		notifier.assertNoMorePushes(t)
	})
}

func TestGetMessages(t *testing.T) {
	t.Run("DelegatesToRepo", func(t *testing.T) {
		repo := new(MockConversationRepo)
		svc := service.NewChatService(repo, new(MockUserRepo), newRecordingNotifier(nil), zerolog.Nop())

		want := []*domain.Message{{ID: 1, Body: "hi"}, {ID: 2, Body: "yo"}}
		repo.On("ListMessages", mock.Anything, int64(1), int64(2)).Return(want, nil)

		got, err := svc.GetMessages(context.Background(), 1, 2)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("NoConversationYieldsEmpty", func(t *testing.T) {
		repo := new(MockConversationRepo)
		svc := service.NewChatService(repo, new(MockUserRepo), newRecordingNotifier(nil), zerolog.Nop())

		repo.On("ListMessages", mock.Anything, int64(1), int64(99)).Return([]*domain.Message{}, nil)

		got, err := svc.GetMessages(context.Background(), 1, 99)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
