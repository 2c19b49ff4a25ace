package store

import (
	"slices"

	"github.com/jrsteele09/go-taskboard/model"
)

func reduceChat(s ChatState, self string, a Action) ChatState {
	switch a := a.(type) {
	case ChatPending:
		s.Loading = true
		s.Error = ""
	case ChatFailed:
		s.Loading = false
		s.Error = a.Error
	case ConversationsLoaded:
		s = s.clone()
		s.Loading = false
		s.Conversations = slices.Clone(a.Conversations)
		if i := conversationIndex(s.Conversations, s.Active); i >= 0 {
			s.Conversations[i].UnreadCount = 0
		}
		sortConversations(s.Conversations)
	case MessagesLoaded:
		// a late response for a conversation that is no longer active is dropped
		if s.Active != "" && a.ParticipantID != s.Active {
			s.Loading = false
			return s
		}
		s = s.clone()
		s.Loading = false
		s.Messages = mergeHistory(a.Messages, s.Messages, self, a.ParticipantID)
		for _, m := range s.Messages {
			if m.ID != "" {
				s.Seen[m.ID] = struct{}{}
			}
		}
	case MessageReceived:
		return receiveMessage(s, self, a.Message)
	case MessageSent:
		return sentMessage(s, a.Message)
	case MessagesRead:
		s = s.clone()
		if i := conversationIndex(s.Conversations, a.ParticipantID); i >= 0 {
			s.Conversations[i].UnreadCount = 0
		}
		for i, m := range s.Messages {
			if m.SenderID == a.ParticipantID && !m.Read {
				s.Messages[i].Read = true
			}
		}
	case ActiveConversationSet:
		if s.Active != a.ParticipantID {
			s.Messages = nil
		}
		s.Active = a.ParticipantID
	case ActiveConversationCleared:
		s.Active = ""
		s.Messages = nil
	}
	return s
}

// receiveMessage merges an inbound message into the conversation list and,
// when it belongs to the active conversation, the visible message list.
// Malformed and already merged messages leave the state untouched.
func receiveMessage(s ChatState, self string, m model.Message) ChatState {
	if !m.WellFormed() || s.seen(m.ID) {
		return s
	}
	s = s.clone()
	s.Seen[m.ID] = struct{}{}

	participant := m.Participant(self)
	active := s.Active != "" && participant == s.Active
	own := self != "" && m.SenderID == self

	if active {
		s.Messages = append(s.Messages, m)
	}

	if i := conversationIndex(s.Conversations, participant); i >= 0 {
		c := &s.Conversations[i]
		if !m.Timestamp.Before(c.LastMessageTimestamp) {
			c.LastMessage = m.Content
			c.LastMessageTimestamp = m.Timestamp
		}
		switch {
		case active:
			c.UnreadCount = 0
		case !own:
			c.UnreadCount++
		}
	} else {
		unread := 1
		if active || own {
			unread = 0
		}
		s.Conversations = append(s.Conversations, placeholder(participant, m, unread))
	}

	sortConversations(s.Conversations)
	return s
}

// sentMessage applies the acknowledgment of a message the session user sent.
func sentMessage(s ChatState, m model.Message) ChatState {
	if m.RecipientID == "" || (m.ID != "" && s.seen(m.ID)) {
		return s
	}
	s = s.clone()
	s.Loading = false
	if m.ID != "" {
		s.Seen[m.ID] = struct{}{}
	}
	if s.Active == m.RecipientID {
		s.Messages = append(s.Messages, m)
	}
	if i := conversationIndex(s.Conversations, m.RecipientID); i >= 0 {
		c := &s.Conversations[i]
		if !m.Timestamp.Before(c.LastMessageTimestamp) {
			c.LastMessage = m.Content
			c.LastMessageTimestamp = m.Timestamp
		}
	} else {
		s.Conversations = append(s.Conversations, placeholder(m.RecipientID, m, 0))
	}
	sortConversations(s.Conversations)
	return s
}

// mergeHistory combines a fetched history with the messages already visible
// for participant, which may include pushes that arrived while the fetch was in
// flight. Fetched copies win for shared IDs; the result is oldest first.
func mergeHistory(fetched, visible []model.Message, self, participant string) []model.Message {
	out := slices.Clone(fetched)
	ids := make(map[string]struct{}, len(fetched))
	for _, m := range fetched {
		if m.ID != "" {
			ids[m.ID] = struct{}{}
		}
	}
	for _, m := range visible {
		if self != "" && m.Participant(self) != participant {
			continue
		}
		if _, dup := ids[m.ID]; dup && m.ID != "" {
			continue
		}
		out = append(out, m)
	}
	slices.SortStableFunc(out, func(a, b model.Message) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out
}

// placeholder stands in for a conversation the server has not described yet.
// Its name is corrected by the next conversation fetch.
func placeholder(participant string, m model.Message, unread int) model.Conversation {
	return model.Conversation{
		ID:                   PlaceholderPrefix + m.ID,
		ParticipantID:        participant,
		ParticipantName:      UnknownParticipant,
		LastMessage:          m.Content,
		LastMessageTimestamp: m.Timestamp,
		UnreadCount:          unread,
	}
}

func conversationIndex(convs []model.Conversation, participant string) int {
	if participant == "" {
		return -1
	}
	return slices.IndexFunc(convs, func(c model.Conversation) bool { return c.ParticipantID == participant })
}

// sortConversations orders newest first; ties keep their relative order.
func sortConversations(convs []model.Conversation) {
	slices.SortStableFunc(convs, func(a, b model.Conversation) int {
		return b.LastMessageTimestamp.Compare(a.LastMessageTimestamp)
	})
}
