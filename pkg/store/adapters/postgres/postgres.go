// Package postgres implements the message and order stores on PostgreSQL
// through a pgx connection pool, matching the platform's primary database.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/savdolab/convoctx/pkg/chat"
	"github.com/savdolab/convoctx/pkg/log"
	"github.com/savdolab/convoctx/pkg/store"
)

// Stores bundles the PostgreSQL-backed message and order stores, which share
// a single connection pool.
type Stores struct {
	pool *pgxpool.Pool
}

// NewStores wraps an existing pgx connection pool. The messages and orders
// tables are owned by the platform's CRUD services; this adapter only reads.
func NewStores(pool *pgxpool.Pool) *Stores {
	log.Debug("Initialized PostgreSQL message/order stores")
	return &Stores{pool: pool}
}

// Connect creates a pool from a connection string and wraps it.
func Connect(ctx context.Context, dsn string) (*Stores, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL connection pool: %w", err)
	}
	return NewStores(pool), nil
}

// Close releases the underlying connection pool.
func (s *Stores) Close() {
	s.pool.Close()
}

// FindRecentMessages implements store.MessageStore.
func (s *Stores) FindRecentMessages(ctx context.Context, conversationID chat.ConversationID, limit int) ([]store.Message, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, sender, content, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, string(conversationID), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []store.Message
	for rows.Next() {
		var msg store.Message
		var sender string
		if err := rows.Scan(&msg.ID, &sender, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		msg.Sender = store.Sender(sender)
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message rows: %w", err)
	}

	return messages, nil
}

// FindOrdersForCustomer implements store.OrderStore.
func (s *Stores) FindOrdersForCustomer(ctx context.Context, customerID chat.CustomerID) ([]store.Order, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, total, items, created_at
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC`, string(customerID))
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []store.Order
	for rows.Next() {
		var order store.Order
		var itemsJSON []byte
		if err := rows.Scan(&order.ID, &order.Total, &itemsJSON, &order.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}

		if len(itemsJSON) > 0 {
			if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
				log.WarnContext(ctx, "Skipping malformed order items",
					"order_id", order.ID, "error", err)
			}
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order rows: %w", err)
	}

	return orders, nil
}
