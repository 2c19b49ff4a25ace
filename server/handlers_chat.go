package server

import (
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-taskboard/chat"
	"github.com/jrsteele09/go-taskboard/model"
	"github.com/jrsteele09/go-taskboard/realtime"
)

const unknownUserName = "Unknown User"

type markReadResponse struct {
	Updated int `json:"updated"`
}

// ConversationsHandler aggregates the caller's message history into one
// conversation per participant, newest first.
func (s *Server) ConversationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := UserFromContext(r.Context())
		history, err := s.repos.Messages.Involving(caller.ID)
		if err != nil {
			log.Err(err).Msg("[ConversationsHandler] failed to load messages")
			writeJSONError(w, "server_error", "Failed to fetch conversations", http.StatusInternalServerError)
			return
		}
		writeJSON(w, s.aggregateConversations(caller.ID, history), http.StatusOK)
	}
}

func (s *Server) aggregateConversations(callerID string, history []model.Message) []model.Conversation {
	byParticipant := map[string]*model.Conversation{}
	for _, m := range history {
		participant := m.Participant(callerID)
		conv, ok := byParticipant[participant]
		if !ok {
			conv = &model.Conversation{
				ID:              participant,
				ParticipantID:   participant,
				ParticipantName: s.displayName(participant),
			}
			byParticipant[participant] = conv
		}
		if !m.Timestamp.Before(conv.LastMessageTimestamp) {
			conv.LastMessage = m.Content
			conv.LastMessageTimestamp = m.Timestamp
		}
		if m.SenderID == participant && !m.Read {
			conv.UnreadCount++
		}
	}

	out := make([]model.Conversation, 0, len(byParticipant))
	for _, conv := range byParticipant {
		out = append(out, *conv)
	}
	slices.SortFunc(out, func(a, b model.Conversation) int {
		if c := b.LastMessageTimestamp.Compare(a.LastMessageTimestamp); c != 0 {
			return c
		}
		return strings.Compare(a.ParticipantID, b.ParticipantID)
	})
	return out
}

func (s *Server) displayName(userID string) string {
	u, err := s.repos.Users.GetByID(userID)
	if err != nil || u.Name == "" {
		return unknownUserName
	}
	return u.Name
}

func (s *Server) MessagesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := UserFromContext(r.Context())
		list, err := s.repos.Messages.Between(caller.ID, r.PathValue("participantId"))
		if err != nil {
			log.Err(err).Msg("[MessagesHandler] failed to load messages")
			writeJSONError(w, "server_error", "Failed to fetch messages", http.StatusInternalServerError)
			return
		}
		writeJSON(w, list, http.StatusOK)
	}
}

// SendMessageHandler persists a message and pushes it to the recipient.
func (s *Server) SendMessageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := UserFromContext(r.Context())
		var req model.SendMessageRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := chat.ValidateSend(req.RecipientID, req.Content); err != nil {
			writeValidationError(w, err)
			return
		}
		if _, err := s.repos.Users.GetByID(req.RecipientID); err != nil {
			writeJSONError(w, "not_found", "Recipient not found", http.StatusNotFound)
			return
		}

		m := model.Message{
			ID:          uuid.New().String(),
			SenderID:    caller.ID,
			RecipientID: req.RecipientID,
			Content:     req.Content,
			Timestamp:   s.nowFunc().UTC(),
		}
		if err := s.repos.Messages.Add(m); err != nil {
			log.Err(err).Msg("[SendMessageHandler] failed to store message")
			writeJSONError(w, "server_error", "Failed to send message", http.StatusInternalServerError)
			return
		}
		s.hub.Push(realtime.EventMessage, m, m.RecipientID)
		writeJSON(w, m, http.StatusCreated)
	}
}

// MarkReadHandler marks everything the participant sent the caller as read.
func (s *Server) MarkReadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := UserFromContext(r.Context())
		n, err := s.repos.Messages.MarkRead(r.PathValue("participantId"), caller.ID)
		if err != nil {
			log.Err(err).Msg("[MarkReadHandler] failed to mark messages read")
			writeJSONError(w, "server_error", "Failed to mark messages as read", http.StatusInternalServerError)
			return
		}
		writeJSON(w, markReadResponse{Updated: n}, http.StatusOK)
	}
}
