package contextengine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/savdolab/convoctx/pkg/chat"
	convoerrors "github.com/savdolab/convoctx/pkg/errors"
	"github.com/savdolab/convoctx/pkg/insight"
	"github.com/savdolab/convoctx/pkg/intent"
	"github.com/savdolab/convoctx/pkg/language"
	"github.com/savdolab/convoctx/pkg/log"
	"github.com/savdolab/convoctx/pkg/memory"
	"github.com/savdolab/convoctx/pkg/profile"
	"github.com/savdolab/convoctx/pkg/store"
)

// Cache defaults; overridable through Options.
const (
	DefaultCacheCapacity = 10000
	DefaultCacheTTL      = 30 * time.Minute
)

// historyWindow is how many messages are fetched when (re)building a context.
const historyWindow = 20

// summaryWindow is how many recent messages feed the conversation summary.
const summaryWindow = 10

// Options tunes the engine's cache bounds.
type Options struct {
	CacheCapacity int
	CacheTTL      time.Duration
}

// Engine is the context assembler facade. It orchestrates the memory store,
// state machine, profile builder and language detector into cached
// ConversationContext snapshots, one per conversation+customer pair.
//
// The cache is capacity-bounded with a TTL; eviction of a context is always
// safe because it can be rebuilt from stores and memory on the next access.
type Engine struct {
	messages   store.MessageStore
	memories   *memory.Store
	profiles   *profile.Builder
	detector   language.Detector
	classifier intent.Classifier

	cache *expirable.LRU[string, *ConversationContext]
	locks *chat.KeyedMutex
}

// NewEngine assembles an engine from its collaborators. A nil opts uses the
// default cache bounds.
func NewEngine(messages store.MessageStore, memories *memory.Store, profiles *profile.Builder, detector language.Detector, classifier intent.Classifier, opts *Options) *Engine {
	capacity := DefaultCacheCapacity
	ttl := DefaultCacheTTL
	if opts != nil {
		if opts.CacheCapacity > 0 {
			capacity = opts.CacheCapacity
		}
		if opts.CacheTTL > 0 {
			ttl = opts.CacheTTL
		}
	}

	return &Engine{
		messages:   messages,
		memories:   memories,
		profiles:   profiles,
		detector:   detector,
		classifier: classifier,
		cache:      expirable.NewLRU[string, *ConversationContext](capacity, nil, ttl),
		locks:      chat.NewKeyedMutex(),
	}
}

// GetOrCreateContext returns the cached context for the pair, assembling and
// caching a fresh one on miss. Two consecutive calls with no intervening
// update or clear return the identical snapshot. Store failures propagate
// unchanged.
func (e *Engine) GetOrCreateContext(ctx context.Context, key chat.Key) (*ConversationContext, error) {
	if key.IsZero() {
		return nil, fmt.Errorf("%w: conversation and customer IDs are required", convoerrors.ErrInvalidInput)
	}

	if cached, ok := e.cache.Get(key.String()); ok {
		return cached, nil
	}

	ctx = withChatScope(ctx, key)

	unlock := e.locks.Lock(key)
	defer unlock()

	// Re-check under the lock: a concurrent caller may have assembled it
	if cached, ok := e.cache.Get(key.String()); ok {
		return cached, nil
	}

	assembled, err := e.assemble(ctx, key)
	if err != nil {
		return nil, err
	}

	e.cache.Add(key.String(), assembled)
	return assembled, nil
}

// UpdateContext folds a new message into the cached context. User messages
// additionally drive language detection, intent classification, the state
// machine and short-term memory; bot messages only bump counters and refresh
// the summary.
//
// The update is applied to a copy of the cached snapshot and the cache entry
// is replaced only after every memory write has succeeded, so a store
// failure leaves the cached state exactly as it was and the call can be
// retried with the same message.
func (e *Engine) UpdateContext(ctx context.Context, key chat.Key, messageText string, isUserMessage bool) (*ConversationContext, error) {
	// Ensure a snapshot exists before taking the key lock
	if _, err := e.GetOrCreateContext(ctx, key); err != nil {
		return nil, err
	}

	ctx = withChatScope(ctx, key)

	unlock := e.locks.Lock(key)
	defer unlock()

	snapshot, ok := e.cache.Get(key.String())
	if !ok {
		// Evicted between the calls; rebuild under the lock
		rebuilt, err := e.assemble(ctx, key)
		if err != nil {
			return nil, err
		}
		snapshot = rebuilt
	}

	updated := *snapshot
	updated.LastInteraction = time.Now().UTC()
	updated.MessageCount++

	if isUserMessage {
		if err := e.applyUserMessage(ctx, key, &updated, messageText); err != nil {
			return nil, err
		}
	}

	mem, err := e.memories.GetOrCreate(ctx, key)
	if err != nil {
		return nil, err
	}

	updated.Memory = memoryView(mem)
	updated.ConversationSummary = summarize(mem)

	e.cache.Add(key.String(), &updated)
	return &updated, nil
}

// applyUserMessage runs the language, intent and state-machine pipeline for
// an inbound customer message and records the results in memory.
func (e *Engine) applyUserMessage(ctx context.Context, key chat.Key, snapshot *ConversationContext, messageText string) error {
	detected := e.detector.DetectLanguage(messageText)
	// Replace the stored detection only on a strictly better read
	if detected.Confidence > snapshot.Language.DetectedLanguage.Confidence {
		detected.IsPrimary = true
		snapshot.Language.DetectedLanguage = detected
		snapshot.Language.CulturalProfile = e.detector.GetCulturalContext(detected.Code)
	}

	classified := e.classifier.Classify(ctx, messageText)
	snapshot.Intent = classified
	snapshot.Confidence = intent.Confidence(classified, snapshot.MessageCount)

	previous := snapshot.CurrentState
	next := intent.NextState(previous, classified)
	snapshot.CurrentState = next

	tone, sentiment := estimateSentiment(messageText)

	_, err := e.memories.Update(ctx, key, func(m *memory.ConversationMemory) {
		if next != previous {
			m.ShortTerm.FlowTransitions = append(m.ShortTerm.FlowTransitions, memory.FlowTransition{
				From:    previous,
				To:      next,
				Trigger: string(classified),
				At:      time.Now().UTC(),
			})
		}
	})
	if err != nil {
		return err
	}

	if _, err := e.memories.AddMessage(ctx, key, messageText, classified, snapshot.Confidence, tone, sentiment); err != nil {
		return err
	}

	log.DebugContext(ctx, "Applied user message to context",
		"intent", classified,
		"state", next,
		"language", snapshot.Language.DetectedLanguage.Code)

	return nil
}

// ClearContext drops the cache entry only; persisted memory is untouched.
func (e *Engine) ClearContext(key chat.Key) {
	e.cache.Remove(key.String())
}

// GetContextStats aggregates over the live cache.
func (e *Engine) GetContextStats() Stats {
	conversations := make(map[chat.ConversationID]struct{})
	for _, snapshot := range e.cache.Values() {
		conversations[snapshot.ConversationID] = struct{}{}
	}
	return Stats{
		ActiveConversations: len(conversations),
		CacheSize:           e.cache.Len(),
	}
}

// GetLanguageDistribution counts cached contexts by detected language code.
func (e *Engine) GetLanguageDistribution() map[string]int {
	distribution := make(map[string]int)
	for _, snapshot := range e.cache.Values() {
		distribution[snapshot.Language.DetectedLanguage.Code]++
	}
	return distribution
}

// GetMemoryInsights synthesizes insights over the current memory record.
func (e *Engine) GetMemoryInsights(ctx context.Context, key chat.Key) (insight.Insights, error) {
	mem, err := e.memories.GetOrCreate(ctx, key)
	if err != nil {
		return insight.Insights{}, err
	}
	return insight.Synthesize(mem), nil
}

// GetConversationSummary returns the memory store's human-readable digest.
func (e *Engine) GetConversationSummary(ctx context.Context, key chat.Key) (string, error) {
	return e.memories.Summary(ctx, key)
}

// Memories exposes the underlying memory store for post-reply feedback
// (episodic events, emotional state, learning insights, pending actions).
func (e *Engine) Memories() *memory.Store {
	return e.memories
}

// withChatScope threads the chat key and a key-scoped logger through the
// context so downstream log lines carry the conversation fields.
func withChatScope(ctx context.Context, key chat.Key) context.Context {
	ctx = chat.ContextWithKey(ctx, key)
	return log.WithLogger(ctx, log.WithChatKey(log.FromContext(ctx), key))
}

// assemble performs the full cache-miss pipeline.
func (e *Engine) assemble(ctx context.Context, key chat.Key) (*ConversationContext, error) {
	history, err := e.messages.FindRecentMessages(ctx, key.ConversationID, historyWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch conversation history: %w", err)
	}

	mem, err := e.memories.GetOrCreate(ctx, key)
	if err != nil {
		return nil, err
	}

	langCtx := e.detectAggregateLanguage(history)

	customerProfile, err := e.profiles.Build(ctx, key.CustomerID, mem, &langCtx)
	if err != nil {
		return nil, err
	}

	latest := latestUserMessage(history)
	classified := e.classifier.Classify(ctx, latest)
	state := intent.AnalyzeHistory(messageContents(history))
	confidence := intent.Confidence(classified, len(history))

	now := time.Now().UTC()
	snapshot := &ConversationContext{
		ConversationID:      key.ConversationID,
		CustomerID:          key.CustomerID,
		CurrentState:        state,
		Intent:              classified,
		Confidence:          confidence,
		CustomerProfile:     customerProfile,
		Language:            langCtx,
		Memory:              memoryView(mem),
		ConversationSummary: summarize(mem),
		SessionStart:        now,
		LastInteraction:     now,
		MessageCount:        len(history),
	}

	log.DebugContext(ctx, "Assembled conversation context",
		"state", state,
		"intent", classified,
		"history_len", len(history))

	return snapshot, nil
}

// detectAggregateLanguage picks the best detection across the user's side of
// the history.
func (e *Engine) detectAggregateLanguage(history []store.Message) language.Context {
	var userTexts []string
	for _, msg := range history {
		if msg.Sender == store.SenderUser {
			userTexts = append(userTexts, msg.Content)
		}
	}

	detected := language.DetectPrimary(e.detector, userTexts)
	return language.Context{
		DetectedLanguage: detected,
		CulturalProfile:  e.detector.GetCulturalContext(detected.Code),
	}
}

// latestUserMessage returns the newest user-authored content, or "" when the
// history has none.
func latestUserMessage(history []store.Message) string {
	for _, msg := range history {
		if msg.Sender == store.SenderUser {
			return msg.Content
		}
	}
	return ""
}

func messageContents(history []store.Message) []string {
	contents := make([]string, 0, len(history))
	for _, msg := range history {
		contents = append(contents, msg.Content)
	}
	return contents
}

// summarize renders the rolling conversation summary from the memory record.
func summarize(mem *memory.ConversationMemory) string {
	recent := mem.ShortTerm.RecentMessages
	if len(recent) > summaryWindow {
		recent = recent[:summaryWindow]
	}

	if len(recent) == 0 {
		return "No conversation history yet."
	}

	topics := "general topics"
	if len(mem.ShortTerm.ActiveTopics) > 0 {
		topics = strings.Join(mem.ShortTerm.ActiveTopics, ", ")
	}

	return fmt.Sprintf("Last %d messages about %s. Customer mood: %s (%s trend). Memory score %d/100.",
		len(recent),
		topics,
		mem.ShortTerm.EmotionalState.Primary,
		mem.ShortTerm.EmotionalState.Trend,
		mem.MemoryScore,
	)
}

// Sentiment vocabulary for the inline tone heuristic.
var (
	positiveWords = []string{
		"thank", "great", "good", "perfect", "love", "excellent",
		"rahmat", "yaxshi", "ajoyib", "zo'r",
		"спасибо", "отлично", "хорошо", "супер",
	}
	negativeWords = []string{
		"problem", "broken", "bad", "terrible", "angry", "not working",
		"muammo", "yomon", "ishlamayapti",
		"проблема", "плохо", "не работает", "ужасно",
	}
)

// estimateSentiment is a cheap keyword read used when folding a raw message
// into short-term memory; the post-reply feedback path can overwrite it with
// a real model's score.
func estimateSentiment(text string) (tone string, score float64) {
	lower := strings.ToLower(text)

	var positive, negative int
	for _, word := range positiveWords {
		if strings.Contains(lower, word) {
			positive++
		}
	}
	for _, word := range negativeWords {
		if strings.Contains(lower, word) {
			negative++
		}
	}

	switch {
	case positive > negative:
		return "positive", 0.8
	case negative > positive:
		return "negative", 0.2
	default:
		return "neutral", 0.5
	}
}
