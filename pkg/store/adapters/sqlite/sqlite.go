// Package sqlite implements the message and order stores on a SQLite
// database, used in development and single-node deployments.
package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/savdolab/convoctx/pkg/chat"
	"github.com/savdolab/convoctx/pkg/log"
	"github.com/savdolab/convoctx/pkg/store"
)

// Stores bundles the SQLite-backed message and order stores, which share a
// single database handle.
type Stores struct {
	db *sqlx.DB
}

// Open connects to the SQLite database at path and bootstraps the schema.
func Open(path string) (*Stores, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	s := &Stores{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	log.Debug("Initialized SQLite message/order stores", "path", path)
	return s, nil
}

// NewStores wraps an existing database handle and bootstraps the schema.
func NewStores(db *sqlx.DB) (*Stores, error) {
	s := &Stores{db: db}
	if err := s.initialize(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Stores) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			sender TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_messages_conversation
			ON messages(conversation_id, created_at);
		CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			customer_id TEXT NOT NULL,
			total REAL NOT NULL DEFAULT 0,
			items TEXT,
			created_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_orders_customer
			ON orders(customer_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Stores) Close() error {
	return s.db.Close()
}

// FindRecentMessages implements store.MessageStore.
func (s *Stores) FindRecentMessages(ctx context.Context, conversationID chat.ConversationID, limit int) ([]store.Message, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, sender, content, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, string(conversationID), limit)
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
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, total, items, created_at
		FROM orders
		WHERE customer_id = ?
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

		// Item details are optional on the platform side
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
