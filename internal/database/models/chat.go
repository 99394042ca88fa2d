package models

import "time"

// ChatMessage is a group chat line. It is relayed, never stored.
type ChatMessage struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"groupId"`
	Message     string    `json:"message"`
	SenderEmail string    `json:"senderEmail"`
	Timestamp   time.Time `json:"timestamp"`
}
