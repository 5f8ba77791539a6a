package domain

import "fmt"

type MessageType string

const (
	MessageChat   MessageType = "chat"
	MessageSystem MessageType = "system"
)

// Message is the outbound broadcast envelope. System notices carry no
// username and are never attributed to a sender.
type Message struct {
	Type     MessageType `json:"type"`
	Username Name        `json:"username,omitempty"`
	Content  string      `json:"content"`
}

// Inbound is the client-to-server chat envelope. The field names of the
// inbound and outbound shapes differ on purpose; the hub translates.
type Inbound struct {
	Message string `json:"message"`
}

func NewChatMessage(sender Name, content string) Message {
	return Message{Type: MessageChat, Username: sender, Content: content}
}

func JoinNotice(name Name) Message {
	return Message{Type: MessageSystem, Content: fmt.Sprintf("%s has joined the chat", name)}
}

func LeaveNotice(name Name) Message {
	return Message{Type: MessageSystem, Content: fmt.Sprintf("%s has left the chat", name)}
}
