package model

import "time"

type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
	Read        bool      `json:"read"`
}

// Participant returns the identifier of the conversation the message belongs
// to: the other party from selfID's point of view. With no known session user
// the sender is used.
func (m Message) Participant(selfID string) string {
	if selfID != "" && m.SenderID == selfID {
		return m.RecipientID
	}
	return m.SenderID
}

// WellFormed reports whether the message carries what reconciliation needs.
func (m Message) WellFormed() bool {
	return m.ID != "" && m.SenderID != "" && m.RecipientID != "" && !m.Timestamp.IsZero()
}

// Conversation aggregates the message history with one other participant.
type Conversation struct {
	ID                   string    `json:"id"`
	ParticipantID        string    `json:"participantId"`
	ParticipantName      string    `json:"participantName"`
	LastMessage          string    `json:"lastMessage"`
	LastMessageTimestamp time.Time `json:"lastMessageTimestamp"`
	UnreadCount          int       `json:"unreadCount"`
}

type SendMessageRequest struct {
	RecipientID string `json:"recipientId"`
	Content     string `json:"content"`
}
