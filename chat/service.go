// Package chat fetches conversations and messages and sends messages over REST.
// Push delivery of inbound messages is handled by the realtime channel.
package chat

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-taskboard/api"
	taskerrors "github.com/jrsteele09/go-taskboard/internal/errors"
	"github.com/jrsteele09/go-taskboard/model"
	"github.com/jrsteele09/go-taskboard/store"
)

type Service struct {
	client *api.Client
	store  *store.Store
}

func NewService(client *api.Client, st *store.Store) (*Service, error) {
	if client == nil {
		return nil, errors.New("[chat NewService] API client is required")
	}
	if st == nil {
		return nil, errors.New("[chat NewService] store is required")
	}
	return &Service{client: client, store: st}, nil
}

func (s *Service) FetchConversations(ctx context.Context) ([]model.Conversation, error) {
	s.store.Dispatch(store.ChatPending{})
	var convs []model.Conversation
	if err := s.client.Do(ctx, api.Request{Method: http.MethodGet, Path: api.RouteConversations}, &convs); err != nil {
		return nil, s.fail(err, "Failed to fetch conversations")
	}
	s.store.Dispatch(store.ConversationsLoaded{Conversations: convs})
	return convs, nil
}

// FetchMessages loads the history with participantID. The result only replaces
// the visible list while that participant is still the active conversation.
func (s *Service) FetchMessages(ctx context.Context, participantID string) ([]model.Message, error) {
	s.store.Dispatch(store.ChatPending{})
	var msgs []model.Message
	if err := s.client.Do(ctx, api.Request{Method: http.MethodGet, Path: api.MessagesWithPath(participantID)}, &msgs); err != nil {
		return nil, s.fail(err, "Failed to fetch messages")
	}
	s.store.Dispatch(store.MessagesLoaded{ParticipantID: participantID, Messages: msgs})
	return msgs, nil
}

// Send performs the REST write. The store changes only once the backend has
// acknowledged the message.
func (s *Service) Send(ctx context.Context, recipientID, content string) (*model.Message, error) {
	if err := ValidateSend(recipientID, content); err != nil {
		s.store.Dispatch(store.ChatFailed{Error: err.Error()})
		return nil, err
	}
	var m model.Message
	req := model.SendMessageRequest{RecipientID: recipientID, Content: content}
	if err := s.client.Do(ctx, api.Request{Method: http.MethodPost, Path: api.RouteMessages, Body: req}, &m); err != nil {
		return nil, s.fail(err, "Failed to send message")
	}
	s.store.Dispatch(store.MessageSent{Message: m})
	return &m, nil
}

// MarkRead marks every message from participantID as read.
func (s *Service) MarkRead(ctx context.Context, participantID string) error {
	if err := s.client.Do(ctx, api.Request{Method: http.MethodPut, Path: api.MessagesReadPath(participantID), Body: struct{}{}}, nil); err != nil {
		return s.fail(err, "Failed to mark messages as read")
	}
	s.store.Dispatch(store.MessagesRead{ParticipantID: participantID})
	return nil
}

func ValidateSend(recipientID, content string) error {
	fields := map[string]string{}
	if strings.TrimSpace(recipientID) == "" {
		fields["recipientId"] = "Recipient is required"
	}
	if strings.TrimSpace(content) == "" {
		fields["content"] = "Message cannot be empty"
	}
	return taskerrors.NewValidationError(fields)
}

func (s *Service) fail(err error, fallback string) error {
	log.Debug().Err(err).Msg(fallback)
	s.store.Dispatch(store.ChatFailed{Error: api.Message(err, fallback)})
	return err
}
