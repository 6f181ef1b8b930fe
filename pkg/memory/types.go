// Package memory holds the layered conversation memory model and the store
// that persists it. One record exists per conversation+customer pair; every
// mutation goes through an atomic read-modify-write keyed on that pair.
package memory

import (
	"time"

	"github.com/savdolab/convoctx/pkg/chat"
	"github.com/savdolab/convoctx/pkg/intent"
)

// Bounded-list caps. Inserts truncate immediately, keeping the most recent
// items first.
const (
	MaxRecentMessages   = 20
	MaxEpisodicEvents   = 50
	MaxLearningInsights = 20
	MaxActiveTopics     = 5
)

// MessageSummary is one entry in short-term memory.
type MessageSummary struct {
	Content       string        `json:"content"`
	Intent        intent.Intent `json:"intent"`
	Confidence    float64       `json:"confidence"`
	EmotionalTone string        `json:"emotional_tone"`
	Sentiment     float64       `json:"sentiment"`
	Topics        []string      `json:"topics,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}

// EmotionalState is the customer's current emotional read.
type EmotionalState struct {
	// Primary is the dominant emotion ("neutral", "happy", "frustrated", "angry", ...)
	Primary string `json:"primary"`

	// Intensity is on a 1-10 scale
	Intensity int `json:"intensity"`

	// Trend is "improving", "stable" or "declining", recomputed from the
	// sentiment of the last three messages
	Trend string `json:"trend"`

	// Confidence is the certainty of the read (0.0-1.0)
	Confidence float64 `json:"confidence"`
}

// PendingAction is something the assistant promised or needs to do.
type PendingAction struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Priority  string    `json:"priority"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Pending action statuses and priorities.
const (
	ActionStatusPending   = "pending"
	ActionStatusCompleted = "completed"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// FlowTransition records one movement through the conversation state machine.
type FlowTransition struct {
	From    intent.State `json:"from"`
	To      intent.State `json:"to"`
	Trigger string       `json:"trigger"`
	At      time.Time    `json:"at"`
}

// ShortTermMemory is the fast-changing view of the current conversation.
type ShortTermMemory struct {
	// RecentMessages holds the last MaxRecentMessages summaries, newest first
	RecentMessages []MessageSummary `json:"recent_messages"`

	// CurrentContext is a free-text label for what is being discussed
	CurrentContext string `json:"current_context"`

	// ActiveTopics are the most frequent topics across recent messages
	ActiveTopics []string `json:"active_topics"`

	PendingActions  []PendingAction  `json:"pending_actions"`
	EmotionalState  EmotionalState   `json:"emotional_state"`
	FlowTransitions []FlowTransition `json:"flow_transitions"`
}

// RelationshipEvent is one entry in the customer's relationship history.
type RelationshipEvent struct {
	Type        string    `json:"type"`
	Description string    `json:"description"`
	At          time.Time `json:"at"`
}

// PurchasePattern summarizes repeat buying behavior in one category.
type PurchasePattern struct {
	Category     string    `json:"category"`
	Count        int       `json:"count"`
	LastPurchase time.Time `json:"last_purchase"`
}

// CommunicationStyle captures how the customer likes to be spoken to.
type CommunicationStyle struct {
	// MessageLength is "short", "medium" or "long"
	MessageLength string `json:"message_length"`

	// Formality is "formal", "semi-formal" or "casual"
	Formality string `json:"formality"`

	// PreferredLanguage is the ISO 639-1 code of the customer's language
	PreferredLanguage string `json:"preferred_language"`
}

// SatisfactionRecord is one satisfaction observation (0.0-1.0).
type SatisfactionRecord struct {
	Score float64   `json:"score"`
	At    time.Time `json:"at"`
}

// LearningInsight is a lesson the assistant learned about the customer.
type LearningInsight struct {
	ID        string    `json:"id"`
	Insight   string    `json:"insight"`
	Applied   bool      `json:"applied"`
	CreatedAt time.Time `json:"created_at"`
}

// LongTermMemory is the slow-changing customer relationship view.
type LongTermMemory struct {
	Preferences         map[string]string    `json:"preferences,omitempty"`
	RelationshipHistory []RelationshipEvent  `json:"relationship_history,omitempty"`
	PurchasePatterns    []PurchasePattern    `json:"purchase_patterns,omitempty"`
	CommunicationStyle  CommunicationStyle   `json:"communication_style"`
	TrustLevel          int                  `json:"trust_level"`
	SatisfactionHistory []SatisfactionRecord `json:"satisfaction_history,omitempty"`

	// LearningInsights holds the last MaxLearningInsights, newest first
	LearningInsights []LearningInsight `json:"learning_insights,omitempty"`
}

// EpisodicEvent is a discrete remembered event.
type EpisodicEvent struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`

	// EmotionalImpact ranges from -10 (very negative) to +10 (very positive)
	EmotionalImpact float64 `json:"emotional_impact"`

	// Outcome classifies how the event ended ("positive", "negative", "neutral")
	Outcome string `json:"outcome"`

	KeyInsights   []string  `json:"key_insights,omitempty"`
	RelatedTopics []string  `json:"related_topics,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// SemanticMemory is read-mostly structured knowledge about the customer.
type SemanticMemory struct {
	Demographics      map[string]string `json:"demographics,omitempty"`
	ProductInterests  []string          `json:"product_interests,omitempty"`
	ProductAversions  []string          `json:"product_aversions,omitempty"`
	BusinessKnowledge map[string]string `json:"business_knowledge,omitempty"`
	CulturalKnowledge map[string]string `json:"cultural_knowledge,omitempty"`
}

// WorkingMemory is the transient planning scratchpad.
type WorkingMemory struct {
	CurrentTask string   `json:"current_task"`
	ActiveGoals []string `json:"active_goals,omitempty"`
	NextActions []string `json:"next_actions,omitempty"`
}

// ConversationMemory is the full persisted memory record for one
// conversation+customer pair.
type ConversationMemory struct {
	ConversationID chat.ConversationID `json:"conversation_id"`
	CustomerID     chat.CustomerID     `json:"customer_id"`

	ShortTerm ShortTermMemory `json:"short_term"`
	LongTerm  LongTermMemory  `json:"long_term"`
	Episodic  []EpisodicEvent `json:"episodic"`
	Semantic  SemanticMemory  `json:"semantic"`
	Working   WorkingMemory   `json:"working"`

	// MemoryScore is a derived 0-100 richness metric, recomputed on every
	// mutation and never set independently
	MemoryScore int `json:"memory_score"`

	LastUpdated time.Time `json:"last_updated"`
}

// NewDefaultMemory returns the zero-valued record for a brand-new pair.
func NewDefaultMemory(key chat.Key) *ConversationMemory {
	return &ConversationMemory{
		ConversationID: key.ConversationID,
		CustomerID:     key.CustomerID,
		ShortTerm: ShortTermMemory{
			EmotionalState: EmotionalState{
				Primary:    "neutral",
				Intensity:  5,
				Trend:      "stable",
				Confidence: 0.5,
			},
		},
		LongTerm: LongTermMemory{
			TrustLevel: 50,
		},
		Working: WorkingMemory{
			CurrentTask: "initial_greeting",
		},
	}
}
