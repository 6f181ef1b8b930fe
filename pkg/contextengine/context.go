// Package contextengine assembles per-conversation context snapshots from
// the memory store, state machine, profile builder and language detector,
// and caches them in a bounded in-process cache.
package contextengine

import (
	"time"

	"github.com/savdolab/convoctx/pkg/chat"
	"github.com/savdolab/convoctx/pkg/intent"
	"github.com/savdolab/convoctx/pkg/language"
	"github.com/savdolab/convoctx/pkg/memory"
	"github.com/savdolab/convoctx/pkg/profile"
)

// MemoryView is the read-only slice of conversation memory embedded in a
// context snapshot. It is derived on assembly and refreshed on update; the
// authoritative record stays in the memory store.
type MemoryView struct {
	CurrentContext string                 `json:"current_context"`
	ActiveTopics   []string               `json:"active_topics,omitempty"`
	EmotionalState memory.EmotionalState  `json:"emotional_state"`
	PendingActions []memory.PendingAction `json:"pending_actions,omitempty"`
	TrustLevel     int                    `json:"trust_level"`
	MemoryScore    int                    `json:"memory_score"`
}

// ConversationContext is the assembled snapshot handed to the prompt
// orchestration layer. It is created lazily per conversation+customer pair
// and lives in the engine's cache until evicted or cleared. All mutation
// goes through Engine.UpdateContext; callers must treat it as read-only.
type ConversationContext struct {
	ConversationID chat.ConversationID `json:"conversation_id"`
	CustomerID     chat.CustomerID     `json:"customer_id"`

	// CurrentState only changes through the state machine's transition
	// rules, never arbitrarily
	CurrentState intent.State  `json:"current_state"`
	Intent       intent.Intent `json:"intent"`

	// Confidence of the current intent classification (0.0-1.0)
	Confidence float64 `json:"confidence"`

	CustomerProfile *profile.CustomerProfile `json:"customer_profile,omitempty"`
	Language        language.Context         `json:"language"`
	Memory          MemoryView               `json:"memory"`

	ConversationSummary string `json:"conversation_summary"`

	SessionStart    time.Time `json:"session_start"`
	LastInteraction time.Time `json:"last_interaction"`

	// MessageCount is monotonically non-decreasing for the life of the
	// cached snapshot
	MessageCount int `json:"message_count"`
}

// Stats aggregates over the current cache contents.
type Stats struct {
	ActiveConversations int `json:"active_conversations"`
	CacheSize           int `json:"cache_size"`
}

func memoryView(mem *memory.ConversationMemory) MemoryView {
	return MemoryView{
		CurrentContext: mem.ShortTerm.CurrentContext,
		ActiveTopics:   mem.ShortTerm.ActiveTopics,
		EmotionalState: mem.ShortTerm.EmotionalState,
		PendingActions: mem.ShortTerm.PendingActions,
		TrustLevel:     mem.LongTerm.TrustLevel,
		MemoryScore:    mem.MemoryScore,
	}
}
