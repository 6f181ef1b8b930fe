package chat

import "fmt"

// ConversationID identifies a single Telegram conversation (chat) with a bot.
// IDs are assigned externally and are immutable for the life of the record.
type ConversationID string

// CustomerID identifies the customer on the other end of a conversation.
type CustomerID string

// Key is the composite identity under which context and memory are stored.
// All per-chat state (cache entries, memory records, locks) is keyed by it.
type Key struct {
	// ConversationID is mandatory and scopes all conversation state
	ConversationID ConversationID

	// CustomerID scopes customer-level memory within the conversation
	CustomerID CustomerID
}

// NewKey creates a Key from the raw conversation and customer identifiers.
func NewKey(conversationID, customerID string) Key {
	return Key{
		ConversationID: ConversationID(conversationID),
		CustomerID:     CustomerID(customerID),
	}
}

// String renders the key in the canonical "<conversation>:<customer>" form
// used for cache and KV store keys.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.ConversationID, k.CustomerID)
}

// IsZero reports whether either component of the key is missing.
func (k Key) IsZero() bool {
	return k.ConversationID == "" || k.CustomerID == ""
}
