package notification

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// EventType identifies the domain event behind a notification
type EventType string

const (
	EventGroupInvite     EventType = "GROUP_INVITE"
	EventNewExpense      EventType = "NEW_EXPENSE"
	EventChatMessage     EventType = "CHAT_MESSAGE"
	EventPaymentReminder EventType = "PAYMENT_REMINDER"
)

// IsValid checks if the EventType is known
func (e EventType) IsValid() bool {
	switch e {
	case EventGroupInvite, EventNewExpense, EventChatMessage, EventPaymentReminder:
		return true
	}
	return false
}

// Event is a rendered notification. Actor is the user who triggered it and
// never receives it.
type Event struct {
	Type  EventType
	Actor string
	Title string
	Body  string
	Data  map[string]string
}

// GroupInvite is sent to every invited member when a group is created.
func GroupInvite(groupID, groupName, inviterEmail string) Event {
	return Event{
		Type:  EventGroupInvite,
		Actor: inviterEmail,
		Title: "New Group Invitation",
		Body:  fmt.Sprintf("%s invited you to join group \"%s\"", inviterEmail, groupName),
		Data: map[string]string{
			"type":         string(EventGroupInvite),
			"groupId":      groupID,
			"groupName":    groupName,
			"inviterEmail": inviterEmail,
		},
	}
}

// NewExpense is sent to every member except the payer.
func NewExpense(groupID, groupName, expenseID, payerEmail, description string, amount decimal.Decimal) Event {
	return Event{
		Type:  EventNewExpense,
		Actor: payerEmail,
		Title: "New Expense Added",
		Body:  fmt.Sprintf("%s added a new expense in \"%s\": %s - $%s", payerEmail, groupName, description, amount.String()),
		Data: map[string]string{
			"type":        string(EventNewExpense),
			"groupId":     groupID,
			"groupName":   groupName,
			"expenseId":   expenseID,
			"amount":      amount.String(),
			"payerEmail":  payerEmail,
			"description": description,
		},
	}
}

// ChatMessage is sent to every member except the sender.
func ChatMessage(groupID, groupName, senderEmail, message string) Event {
	return Event{
		Type:  EventChatMessage,
		Actor: senderEmail,
		Title: "Message in " + groupName,
		Body:  senderEmail + ": " + message,
		Data: map[string]string{
			"type":        string(EventChatMessage),
			"groupId":     groupID,
			"groupName":   groupName,
			"senderEmail": senderEmail,
			"message":     message,
		},
	}
}

// PaymentReminder is sent to exactly one member, together with an email.
func PaymentReminder(groupID, groupName, senderEmail string) Event {
	return Event{
		Type:  EventPaymentReminder,
		Actor: senderEmail,
		Title: "Payment Reminder",
		Body:  fmt.Sprintf("%s sent you a reminder for \"%s\"", senderEmail, groupName),
		Data: map[string]string{
			"type":        string(EventPaymentReminder),
			"groupId":     groupID,
			"senderEmail": senderEmail,
		},
	}
}

// Message addresses the event to one topic.
func (e Event) Message(topic string) Message {
	data := make(map[string]string, len(e.Data))
	for k, v := range e.Data {
		data[k] = v
	}
	return Message{Topic: topic, Title: e.Title, Body: e.Body, Data: data}
}
