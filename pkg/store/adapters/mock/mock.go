// Package mock provides fixture-backed message and order stores for tests
// and local demos.
package mock

import (
	"context"
	"sort"
	"sync"

	"github.com/savdolab/convoctx/pkg/chat"
	"github.com/savdolab/convoctx/pkg/store"
)

// MessageStore implements store.MessageStore over in-memory fixtures.
type MessageStore struct {
	mu       sync.RWMutex
	messages map[chat.ConversationID][]store.Message
}

// NewMessageStore creates an empty fixture message store.
func NewMessageStore() *MessageStore {
	return &MessageStore{
		messages: make(map[chat.ConversationID][]store.Message),
	}
}

// AddMessage appends a message to a conversation's history.
func (m *MessageStore) AddMessage(conversationID chat.ConversationID, msg store.Message) {
	m.mu.Lock()
	m.messages[conversationID] = append(m.messages[conversationID], msg)
	m.mu.Unlock()
}

// FindRecentMessages implements store.MessageStore.
func (m *MessageStore) FindRecentMessages(ctx context.Context, conversationID chat.ConversationID, limit int) ([]store.Message, error) {
	m.mu.RLock()
	history := m.messages[conversationID]
	messages := make([]store.Message, len(history))
	copy(messages, history)
	m.mu.RUnlock()

	// Newest first
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.After(messages[j].CreatedAt)
	})

	if limit > 0 && len(messages) > limit {
		messages = messages[:limit]
	}
	return messages, nil
}

// OrderStore implements store.OrderStore over in-memory fixtures.
type OrderStore struct {
	mu     sync.RWMutex
	orders map[chat.CustomerID][]store.Order
}

// NewOrderStore creates an empty fixture order store.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders: make(map[chat.CustomerID][]store.Order),
	}
}

// AddOrder appends an order to a customer's history.
func (o *OrderStore) AddOrder(customerID chat.CustomerID, order store.Order) {
	o.mu.Lock()
	o.orders[customerID] = append(o.orders[customerID], order)
	o.mu.Unlock()
}

// FindOrdersForCustomer implements store.OrderStore.
func (o *OrderStore) FindOrdersForCustomer(ctx context.Context, customerID chat.CustomerID) ([]store.Order, error) {
	o.mu.RLock()
	history := o.orders[customerID]
	orders := make([]store.Order, len(history))
	copy(orders, history)
	o.mu.RUnlock()

	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}
