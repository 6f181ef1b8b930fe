package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/savdolab/convoctx/pkg/chat"
	"github.com/savdolab/convoctx/pkg/intent"
	"github.com/savdolab/convoctx/pkg/kv"
	"github.com/savdolab/convoctx/pkg/log"
)

// DefaultTTL bounds how long a memory record lives in the KV store without
// being refreshed by an update.
const DefaultTTL = time.Hour

const keyPrefix = "memory:"

// Store persists ConversationMemory records through a kv.Store. All
// mutations for one chat key serialize on a per-key mutex; a missing record
// is never an error and materializes as the zero-valued default.
type Store struct {
	kv     kv.Store
	ttl    time.Duration
	topics TopicExtractor
	locks  *chat.KeyedMutex
}

// NewStore creates a memory store on top of the given KV backend. A zero ttl
// uses DefaultTTL; a nil extractor uses the keyword default.
func NewStore(kvStore kv.Store, ttl time.Duration, topics TopicExtractor) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if topics == nil {
		topics = NewKeywordTopicExtractor()
	}
	return &Store{
		kv:     kvStore,
		ttl:    ttl,
		topics: topics,
		locks:  chat.NewKeyedMutex(),
	}
}

func recordKey(key chat.Key) string {
	return keyPrefix + key.String()
}

// GetOrCreate returns the persisted record for key, or the zero-valued
// default when none exists. The default is not persisted until the first
// update.
func (s *Store) GetOrCreate(ctx context.Context, key chat.Key) (*ConversationMemory, error) {
	return s.load(ctx, key)
}

// Update applies mutator to the current record under the per-key lock,
// stamps LastUpdated, recomputes the memory score, persists and returns the
// updated record.
func (s *Store) Update(ctx context.Context, key chat.Key, mutator func(*ConversationMemory)) (*ConversationMemory, error) {
	unlock := s.locks.Lock(key)
	defer unlock()

	mem, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}

	mutator(mem)
	clampInvariants(mem)
	mem.LastUpdated = time.Now().UTC()
	mem.MemoryScore = computeMemoryScore(mem)

	if err := s.persist(ctx, key, mem); err != nil {
		return nil, err
	}

	return mem, nil
}

// AddMessage prepends a message summary to short-term memory and refreshes
// the derived context label, active topics and emotional trend.
func (s *Store) AddMessage(ctx context.Context, key chat.Key, content string, in intent.Intent, confidence float64, emotionalTone string, sentiment float64) (*ConversationMemory, error) {
	return s.Update(ctx, key, func(m *ConversationMemory) {
		summary := MessageSummary{
			Content:       content,
			Intent:        in,
			Confidence:    confidence,
			EmotionalTone: emotionalTone,
			Sentiment:     sentiment,
			Topics:        s.topics.Extract(content),
			Timestamp:     time.Now().UTC(),
		}

		m.ShortTerm.RecentMessages = prependMessage(m.ShortTerm.RecentMessages, summary, MaxRecentMessages)
		m.ShortTerm.ActiveTopics = rankTopics(m.ShortTerm.RecentMessages, MaxActiveTopics)
		m.ShortTerm.CurrentContext = contextLabel(m.ShortTerm.ActiveTopics)
		m.ShortTerm.EmotionalState.Trend = sentimentTrend(m.ShortTerm.RecentMessages)
	})
}

// EmotionalStateUpdate is a partial update merged into the current state.
// Zero-valued fields leave the current value untouched.
type EmotionalStateUpdate struct {
	Primary    string
	Intensity  *int
	Confidence *float64
}

// UpdateEmotionalState merges a partial emotional-state update and
// recomputes the trend from recent message sentiment.
func (s *Store) UpdateEmotionalState(ctx context.Context, key chat.Key, update EmotionalStateUpdate) (*ConversationMemory, error) {
	return s.Update(ctx, key, func(m *ConversationMemory) {
		if update.Primary != "" {
			m.ShortTerm.EmotionalState.Primary = update.Primary
		}
		if update.Intensity != nil {
			m.ShortTerm.EmotionalState.Intensity = *update.Intensity
		}
		if update.Confidence != nil {
			m.ShortTerm.EmotionalState.Confidence = *update.Confidence
		}
		m.ShortTerm.EmotionalState.Trend = sentimentTrend(m.ShortTerm.RecentMessages)
	})
}

// AddEpisodicEvent prepends a timestamped, ID-assigned event.
func (s *Store) AddEpisodicEvent(ctx context.Context, key chat.Key, event EpisodicEvent) (*ConversationMemory, error) {
	return s.Update(ctx, key, func(m *ConversationMemory) {
		event.ID = uuid.New().String()
		if event.Timestamp.IsZero() {
			event.Timestamp = time.Now().UTC()
		}

		events := make([]EpisodicEvent, 0, len(m.Episodic)+1)
		events = append(events, event)
		events = append(events, m.Episodic...)
		if len(events) > MaxEpisodicEvents {
			events = events[:MaxEpisodicEvents]
		}
		m.Episodic = events
	})
}

// AddPendingAction appends an action with status pending.
func (s *Store) AddPendingAction(ctx context.Context, key chat.Key, action, priority string) (*ConversationMemory, error) {
	return s.Update(ctx, key, func(m *ConversationMemory) {
		m.ShortTerm.PendingActions = append(m.ShortTerm.PendingActions, PendingAction{
			ID:        uuid.New().String(),
			Action:    action,
			Priority:  priority,
			Status:    ActionStatusPending,
			CreatedAt: time.Now().UTC(),
		})
	})
}

// AddLearningInsight prepends an unapplied insight.
func (s *Store) AddLearningInsight(ctx context.Context, key chat.Key, insightText string) (*ConversationMemory, error) {
	return s.Update(ctx, key, func(m *ConversationMemory) {
		insights := make([]LearningInsight, 0, len(m.LongTerm.LearningInsights)+1)
		insights = append(insights, LearningInsight{
			ID:        uuid.New().String(),
			Insight:   insightText,
			Applied:   false,
			CreatedAt: time.Now().UTC(),
		})
		insights = append(insights, m.LongTerm.LearningInsights...)
		if len(insights) > MaxLearningInsights {
			insights = insights[:MaxLearningInsights]
		}
		m.LongTerm.LearningInsights = insights
	})
}

// Summary renders a short human-readable digest of the current memory.
func (s *Store) Summary(ctx context.Context, key chat.Key) (string, error) {
	mem, err := s.load(ctx, key)
	if err != nil {
		return "", err
	}

	topics := "none"
	if len(mem.ShortTerm.ActiveTopics) > 0 {
		topics = joinTopics(mem.ShortTerm.ActiveTopics)
	}

	return fmt.Sprintf(
		"Conversation with %d recent messages. Active topics: %s. Customer mood: %s (%s). Memory score: %d/100.",
		len(mem.ShortTerm.RecentMessages),
		topics,
		mem.ShortTerm.EmotionalState.Primary,
		mem.ShortTerm.EmotionalState.Trend,
		mem.MemoryScore,
	), nil
}

// load fetches and decodes the record, returning the default when the key is
// absent or the stored payload is unreadable.
func (s *Store) load(ctx context.Context, key chat.Key) (*ConversationMemory, error) {
	data, found, err := s.kv.Get(ctx, recordKey(key))
	if err != nil {
		return nil, fmt.Errorf("failed to load memory record: %w", err)
	}
	if !found {
		log.DebugContext(ctx, "Creating default memory record",
			"conversation_id", key.ConversationID, "customer_id", key.CustomerID)
		return NewDefaultMemory(key), nil
	}

	var mem ConversationMemory
	if err := json.Unmarshal(data, &mem); err != nil {
		// A malformed record is treated as absent rather than failing
		// the conversation pipeline
		log.WarnContext(ctx, "Discarding malformed memory record",
			"conversation_id", key.ConversationID, "error", err)
		return NewDefaultMemory(key), nil
	}

	return &mem, nil
}

func (s *Store) persist(ctx context.Context, key chat.Key, mem *ConversationMemory) error {
	data, err := json.Marshal(mem)
	if err != nil {
		return fmt.Errorf("failed to marshal memory record: %w", err)
	}
	if err := s.kv.Set(ctx, recordKey(key), data, s.ttl); err != nil {
		return fmt.Errorf("failed to persist memory record: %w", err)
	}
	return nil
}

// prependMessage inserts newest-first and truncates to limit.
func prependMessage(messages []MessageSummary, msg MessageSummary, limit int) []MessageSummary {
	result := make([]MessageSummary, 0, len(messages)+1)
	result = append(result, msg)
	result = append(result, messages...)
	if len(result) > limit {
		result = result[:limit]
	}
	return result
}

// sentimentTrend classifies the average sentiment of the last three
// messages: above 0.6 improving, below 0.4 declining, otherwise stable.
func sentimentTrend(recent []MessageSummary) string {
	if len(recent) == 0 {
		return "stable"
	}

	n := len(recent)
	if n > 3 {
		n = 3
	}

	var total float64
	for _, msg := range recent[:n] {
		total += msg.Sentiment
	}
	avg := total / float64(n)

	switch {
	case avg > 0.6:
		return "improving"
	case avg < 0.4:
		return "declining"
	default:
		return "stable"
	}
}

// clampInvariants keeps mutated records inside their contracts instead of
// crashing the pipeline on a bad mutator.
func clampInvariants(m *ConversationMemory) {
	if m.LongTerm.TrustLevel < 0 {
		m.LongTerm.TrustLevel = 0
	}
	if m.LongTerm.TrustLevel > 100 {
		m.LongTerm.TrustLevel = 100
	}

	es := &m.ShortTerm.EmotionalState
	if es.Intensity < 1 {
		es.Intensity = 1
	}
	if es.Intensity > 10 {
		es.Intensity = 10
	}
	if es.Confidence < 0 {
		es.Confidence = 0
	}
	if es.Confidence > 1 {
		es.Confidence = 1
	}

	if len(m.ShortTerm.RecentMessages) > MaxRecentMessages {
		m.ShortTerm.RecentMessages = m.ShortTerm.RecentMessages[:MaxRecentMessages]
	}
	if len(m.Episodic) > MaxEpisodicEvents {
		m.Episodic = m.Episodic[:MaxEpisodicEvents]
	}
	if len(m.LongTerm.LearningInsights) > MaxLearningInsights {
		m.LongTerm.LearningInsights = m.LongTerm.LearningInsights[:MaxLearningInsights]
	}
}

func joinTopics(topics []string) string {
	out := ""
	for i, topic := range topics {
		if i > 0 {
			out += ", "
		}
		out += topic
	}
	return out
}
