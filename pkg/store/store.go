// Package store defines the typed read-side boundary to the message and
// order records owned by the rest of the platform. The engine never parses
// raw rows or JSON blobs itself; adapters own all row shaping.
package store

import (
	"context"
	"time"

	"github.com/savdolab/convoctx/pkg/chat"
)

// Sender identifies who authored a message.
type Sender string

// Message senders
const (
	SenderUser Sender = "USER"
	SenderBot  Sender = "BOT"
)

// Message is a single conversation message.
type Message struct {
	// ID is the externally assigned message identifier
	ID string

	// Sender is who authored the message
	Sender Sender

	// Content is the raw message text
	Content string

	// CreatedAt is when the message was recorded
	CreatedAt time.Time
}

// OrderItem is a single line item on an order.
type OrderItem struct {
	Name     string
	Category string
	Price    float64
	Quantity int
}

// Order is a customer's past order.
type Order struct {
	// ID is the externally assigned order identifier
	ID string

	// CreatedAt is when the order was placed
	CreatedAt time.Time

	// Total is the order total; zero when the platform recorded no amount
	Total float64

	// Items lists the ordered products, possibly empty
	Items []OrderItem
}

// MessageStore reads conversation history.
type MessageStore interface {
	// FindRecentMessages returns up to limit messages for the
	// conversation, newest first.
	FindRecentMessages(ctx context.Context, conversationID chat.ConversationID, limit int) ([]Message, error)
}

// OrderStore reads a customer's order history.
type OrderStore interface {
	// FindOrdersForCustomer returns all orders for the customer,
	// newest first.
	FindOrdersForCustomer(ctx context.Context, customerID chat.CustomerID) ([]Order, error)
}
