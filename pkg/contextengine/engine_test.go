package contextengine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savdolab/convoctx/pkg/chat"
	convoerrors "github.com/savdolab/convoctx/pkg/errors"
	"github.com/savdolab/convoctx/pkg/intent"
	"github.com/savdolab/convoctx/pkg/kv"
	"github.com/savdolab/convoctx/pkg/language"
	mockkv "github.com/savdolab/convoctx/pkg/kv/adapters/mock"
	"github.com/savdolab/convoctx/pkg/memory"
	"github.com/savdolab/convoctx/pkg/profile"
	"github.com/savdolab/convoctx/pkg/store"
	mockstore "github.com/savdolab/convoctx/pkg/store/adapters/mock"
)

type fixture struct {
	engine   *Engine
	messages *mockstore.MessageStore
	orders   *mockstore.OrderStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	messages := mockstore.NewMessageStore()
	orders := mockstore.NewOrderStore()
	memories := memory.NewStore(mockkv.NewMockStore(), time.Hour, nil)

	engine := NewEngine(
		messages,
		memories,
		profile.NewBuilder(orders),
		language.NewKeywordDetector(),
		intent.NewKeywordClassifier(),
		&Options{CacheCapacity: 100, CacheTTL: time.Minute},
	)
	return &fixture{engine: engine, messages: messages, orders: orders}
}

func fixtureKey() chat.Key {
	return chat.NewKey("conv-1", "cust-1")
}

func TestGetOrCreateContext_NewConversation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snapshot, err := f.engine.GetOrCreateContext(ctx, fixtureKey())
	require.NoError(t, err)

	assert.Equal(t, intent.StateGreeting, snapshot.CurrentState)
	assert.Equal(t, intent.IntentUnknown, snapshot.Intent)
	assert.InDelta(t, 0.5, snapshot.Confidence, 0.001)
	assert.Equal(t, 0, snapshot.MessageCount)
	assert.NotNil(t, snapshot.CustomerProfile)
	assert.False(t, snapshot.SessionStart.IsZero())
}

func TestGetOrCreateContext_CacheHitReturnsSameObject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.engine.GetOrCreateContext(ctx, fixtureKey())
	require.NoError(t, err)
	second, err := f.engine.GetOrCreateContext(ctx, fixtureKey())
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestGetOrCreateContext_RebuildsFromHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	f.messages.AddMessage("conv-1", store.Message{
		ID: "m1", Sender: store.SenderUser, Content: "Привет", CreatedAt: now.Add(-2 * time.Minute),
	})
	f.messages.AddMessage("conv-1", store.Message{
		ID: "m2", Sender: store.SenderBot, Content: "Здравствуйте!", CreatedAt: now.Add(-time.Minute),
	})
	f.messages.AddMessage("conv-1", store.Message{
		ID: "m3", Sender: store.SenderUser, Content: "Хочу заказать товар", CreatedAt: now,
	})

	snapshot, err := f.engine.GetOrCreateContext(ctx, fixtureKey())
	require.NoError(t, err)

	assert.Equal(t, intent.StateOrderInitiation, snapshot.CurrentState)
	assert.Equal(t, intent.IntentOrderRequest, snapshot.Intent)
	assert.Equal(t, 3, snapshot.MessageCount)
	assert.Equal(t, "ru", snapshot.Language.DetectedLanguage.Code)
	require.NotNil(t, snapshot.Language.CulturalProfile)
	assert.Equal(t, "formal", snapshot.Language.CulturalProfile.Formality)
}

func TestUpdateContext_OrderRequestAdvancesState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := fixtureKey()

	snapshot, err := f.engine.GetOrCreateContext(ctx, key)
	require.NoError(t, err)
	require.Equal(t, intent.StateGreeting, snapshot.CurrentState)

	// Bot greeting does not run the state machine
	_, err = f.engine.UpdateContext(ctx, key, "Hello! How can I help you today?", false)
	require.NoError(t, err)

	updated, err := f.engine.UpdateContext(ctx, key, "I want to order this product", true)
	require.NoError(t, err)

	assert.Equal(t, intent.IntentOrderRequest, updated.Intent)
	assert.GreaterOrEqual(t, updated.Confidence, 0.8)
	assert.Equal(t, intent.StateOrderInitiation, updated.CurrentState)
}

func TestUpdateContext_MessageCountMonotonic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := fixtureKey()

	previous := 0
	for i, msg := range []string{"hello", "how much is this", "I want to buy it"} {
		snapshot, err := f.engine.UpdateContext(ctx, key, msg, i%2 == 0)
		require.NoError(t, err)
		assert.Greater(t, snapshot.MessageCount, previous)
		previous = snapshot.MessageCount
	}
}

func TestUpdateContext_KeepsHigherConfidenceLanguage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := fixtureKey()

	// Strong Russian detection first
	snapshot, err := f.engine.UpdateContext(ctx, key, "Здравствуйте, сколько стоит доставка?", true)
	require.NoError(t, err)
	require.Equal(t, "ru", snapshot.Language.DetectedLanguage.Code)
	stored := snapshot.Language.DetectedLanguage.Confidence

	// A short Latin-script message detects as low-confidence English and
	// must not displace the stored detection
	snapshot, err = f.engine.UpdateContext(ctx, key, "ok", true)
	require.NoError(t, err)

	assert.Equal(t, "ru", snapshot.Language.DetectedLanguage.Code)
	assert.InDelta(t, stored, snapshot.Language.DetectedLanguage.Confidence, 0.001)
}

func TestUpdateContext_BotMessageOnlyBumpsCounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := fixtureKey()

	before, err := f.engine.GetOrCreateContext(ctx, key)
	require.NoError(t, err)
	state := before.CurrentState
	classified := before.Intent

	after, err := f.engine.UpdateContext(ctx, key, "Here is our catalog!", false)
	require.NoError(t, err)

	assert.Equal(t, state, after.CurrentState)
	assert.Equal(t, classified, after.Intent)
	assert.Equal(t, before.MessageCount+1, after.MessageCount)

	// Bot messages never enter short-term memory
	mem, err := f.engine.Memories().GetOrCreate(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, mem.ShortTerm.RecentMessages)
}

func TestUpdateContext_RecordsFlowTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := fixtureKey()

	_, err := f.engine.UpdateContext(ctx, key, "I want to order a phone", true)
	require.NoError(t, err)

	mem, err := f.engine.Memories().GetOrCreate(ctx, key)
	require.NoError(t, err)

	require.Len(t, mem.ShortTerm.FlowTransitions, 1)
	transition := mem.ShortTerm.FlowTransitions[0]
	assert.Equal(t, intent.StateGreeting, transition.From)
	assert.Equal(t, intent.StateOrderInitiation, transition.To)
	assert.Equal(t, string(intent.IntentOrderRequest), transition.Trigger)
}

func TestClearContext_ForcesRebuildWithoutTouchingMemory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := fixtureKey()

	_, err := f.engine.UpdateContext(ctx, key, "I want to buy a phone", true)
	require.NoError(t, err)

	f.engine.ClearContext(key)

	rebuilt, err := f.engine.GetOrCreateContext(ctx, key)
	require.NoError(t, err)

	// A fresh snapshot, but memory survived the cache clear
	assert.Equal(t, 0, rebuilt.MessageCount)
	mem, err := f.engine.Memories().GetOrCreate(ctx, key)
	require.NoError(t, err)
	assert.Len(t, mem.ShortTerm.RecentMessages, 1)
}

func TestGetContextStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.GetOrCreateContext(ctx, chat.NewKey("conv-1", "cust-1"))
	require.NoError(t, err)
	_, err = f.engine.GetOrCreateContext(ctx, chat.NewKey("conv-2", "cust-2"))
	require.NoError(t, err)

	stats := f.engine.GetContextStats()
	assert.Equal(t, 2, stats.ActiveConversations)
	assert.Equal(t, 2, stats.CacheSize)
}

func TestGetLanguageDistribution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.UpdateContext(ctx, chat.NewKey("conv-1", "cust-1"), "Здравствуйте, сколько стоит?", true)
	require.NoError(t, err)
	_, err = f.engine.UpdateContext(ctx, chat.NewKey("conv-2", "cust-2"), "Salom, narxi qancha?", true)
	require.NoError(t, err)
	_, err = f.engine.UpdateContext(ctx, chat.NewKey("conv-3", "cust-3"), "hello there", true)
	require.NoError(t, err)

	distribution := f.engine.GetLanguageDistribution()
	assert.Equal(t, 1, distribution["ru"])
	assert.Equal(t, 1, distribution["uz"])
	assert.Equal(t, 1, distribution["en"])
}

func TestGetMemoryInsights_ReflectsMemoryState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := fixtureKey()

	intensity := 9
	_, err := f.engine.Memories().UpdateEmotionalState(ctx, key, memory.EmotionalStateUpdate{
		Primary:   "angry",
		Intensity: &intensity,
	})
	require.NoError(t, err)
	_, err = f.engine.Memories().Update(ctx, key, func(m *memory.ConversationMemory) {
		m.LongTerm.TrustLevel = 20
	})
	require.NoError(t, err)

	insights, err := f.engine.GetMemoryInsights(ctx, key)
	require.NoError(t, err)

	assert.Contains(t, insights.RiskFactors, "high risk of customer dissatisfaction")
	assert.Contains(t, insights.RiskFactors, "low trust level requires relationship building")
}

func TestGetConversationSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := fixtureKey()

	_, err := f.engine.UpdateContext(ctx, key, "how much is delivery?", true)
	require.NoError(t, err)

	summary, err := f.engine.GetConversationSummary(ctx, key)
	require.NoError(t, err)
	assert.Contains(t, summary, "1 recent messages")
}

// flakyKV fails the next failSets writes and then behaves normally.
type flakyKV struct {
	inner    kv.Store
	failSets int
}

func (f *flakyKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return f.inner.Get(ctx, key)
}

func (f *flakyKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if f.failSets > 0 {
		f.failSets--
		return convoerrors.ErrStoreUnavailable
	}
	return f.inner.Set(ctx, key, value, ttl)
}

func (f *flakyKV) Delete(ctx context.Context, key string) error {
	return f.inner.Delete(ctx, key)
}

type failingMessageStore struct {
	err error
}

func (s *failingMessageStore) FindRecentMessages(ctx context.Context, conversationID chat.ConversationID, limit int) ([]store.Message, error) {
	return nil, s.err
}

func newFlakyFixture(t *testing.T, failSets int) *Engine {
	t.Helper()
	return NewEngine(
		mockstore.NewMessageStore(),
		memory.NewStore(&flakyKV{inner: mockkv.NewMockStore(), failSets: failSets}, time.Hour, nil),
		profile.NewBuilder(mockstore.NewOrderStore()),
		language.NewKeywordDetector(),
		intent.NewKeywordClassifier(),
		&Options{CacheCapacity: 100, CacheTTL: time.Minute},
	)
}

func TestUpdateContext_StoreFailureLeavesCachedStateClean(t *testing.T) {
	engine := newFlakyFixture(t, 1)
	ctx := context.Background()
	key := fixtureKey()

	before, err := engine.GetOrCreateContext(ctx, key)
	require.NoError(t, err)
	require.Equal(t, intent.StateGreeting, before.CurrentState)

	// First delivery hits the outage; the error surfaces unchanged
	_, err = engine.UpdateContext(ctx, key, "I want to order this product", true)
	require.Error(t, err)
	assert.ErrorIs(t, err, convoerrors.ErrStoreUnavailable)

	// The cached snapshot must not have advanced
	cached, err := engine.GetOrCreateContext(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, intent.StateGreeting, cached.CurrentState)
	assert.Equal(t, intent.IntentUnknown, cached.Intent)
	assert.Equal(t, 0, cached.MessageCount)

	// Redelivering the same message after the outage lands exactly one
	// state transition, not two
	retried, err := engine.UpdateContext(ctx, key, "I want to order this product", true)
	require.NoError(t, err)
	assert.Equal(t, intent.StateOrderInitiation, retried.CurrentState)
	assert.Equal(t, intent.IntentOrderRequest, retried.Intent)
	assert.Equal(t, 1, retried.MessageCount)

	mem, err := engine.Memories().GetOrCreate(ctx, key)
	require.NoError(t, err)
	require.Len(t, mem.ShortTerm.FlowTransitions, 1)
	assert.Equal(t, intent.StateGreeting, mem.ShortTerm.FlowTransitions[0].From)
	assert.Equal(t, intent.StateOrderInitiation, mem.ShortTerm.FlowTransitions[0].To)
}

func TestGetOrCreateContext_PropagatesMessageStoreFailure(t *testing.T) {
	engine := NewEngine(
		&failingMessageStore{err: convoerrors.ErrStoreUnavailable},
		memory.NewStore(mockkv.NewMockStore(), time.Hour, nil),
		profile.NewBuilder(mockstore.NewOrderStore()),
		language.NewKeywordDetector(),
		intent.NewKeywordClassifier(),
		&Options{CacheCapacity: 100, CacheTTL: time.Minute},
	)

	_, err := engine.GetOrCreateContext(context.Background(), fixtureKey())
	require.Error(t, err)
	assert.ErrorIs(t, err, convoerrors.ErrStoreUnavailable)

	// Nothing gets cached on a failed assembly
	assert.Equal(t, 0, engine.GetContextStats().CacheSize)
}
