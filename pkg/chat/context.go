package chat

import (
	"context"
	"errors"
)

// ErrMissingChatKey is returned by operations that require a chat key in the
// context when none was attached.
var ErrMissingChatKey = errors.New("chat key not found in context")

// contextKey is a private type for context keys to avoid collisions
type contextKey int

const (
	// chatKeyContextKey is the key for storing a chat.Key in a context.Context
	chatKeyContextKey contextKey = iota
)

// ContextWithKey adds a chat.Key to a context.Context.
func ContextWithKey(ctx context.Context, key Key) context.Context {
	return context.WithValue(ctx, chatKeyContextKey, key)
}

// KeyFromContext retrieves the chat.Key from a context.Context.
// If no key is found, it returns a zero-valued Key and false.
func KeyFromContext(ctx context.Context) (Key, bool) {
	key, ok := ctx.Value(chatKeyContextKey).(Key)
	return key, ok
}

// MustKeyFromContext retrieves the chat.Key from a context.Context.
// Panics if no key is found, so only use when you are sure a Key exists.
func MustKeyFromContext(ctx context.Context) Key {
	key, ok := KeyFromContext(ctx)
	if !ok {
		panic("chat.Key not found in context.Context")
	}
	return key
}
