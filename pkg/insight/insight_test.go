package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/savdolab/convoctx/pkg/chat"
	"github.com/savdolab/convoctx/pkg/memory"
)

func baseMemory() *memory.ConversationMemory {
	return memory.NewDefaultMemory(chat.Key{ConversationID: "conv-1", CustomerID: "cust-1"})
}

func TestSynthesize_DefaultMemoryIsQuiet(t *testing.T) {
	insights := Synthesize(baseMemory())

	assert.Empty(t, insights.CustomerInsights)
	assert.Empty(t, insights.ConversationInsights)
	assert.Empty(t, insights.ActionRecommendations)
	assert.Empty(t, insights.RiskFactors)
}

func TestCustomerInsights(t *testing.T) {
	mem := baseMemory()
	mem.LongTerm.CommunicationStyle.MessageLength = "short"
	mem.LongTerm.CommunicationStyle.Formality = "formal"
	mem.ShortTerm.EmotionalState.Intensity = 8
	mem.LongTerm.TrustLevel = 80
	mem.ShortTerm.ActiveTopics = []string{"pricing", "delivery", "products", "support"}
	mem.Semantic.ProductInterests = []string{"phones"}

	insights := Synthesize(mem)

	assert.Contains(t, insights.CustomerInsights, "prefers concise communication")
	assert.Contains(t, insights.CustomerInsights, "expects formal tone")
	assert.Contains(t, insights.CustomerInsights, "high emotional engagement")
	assert.Contains(t, insights.CustomerInsights, "established trust relationship")
	assert.Contains(t, insights.CustomerInsights, "frequently discusses: pricing, delivery, products")
	assert.Contains(t, insights.CustomerInsights, "interested in: phones")
}

func TestConversationInsights(t *testing.T) {
	mem := baseMemory()
	for i := 0; i < 11; i++ {
		mem.ShortTerm.RecentMessages = append(mem.ShortTerm.RecentMessages, memory.MessageSummary{Content: "msg"})
	}
	mem.ShortTerm.EmotionalState.Trend = "declining"
	mem.ShortTerm.PendingActions = []memory.PendingAction{
		{Action: "send invoice", Status: memory.ActionStatusPending},
		{Action: "done already", Status: memory.ActionStatusCompleted},
	}
	mem.ShortTerm.CurrentContext = "discussing pricing"

	insights := Synthesize(mem)

	assert.Contains(t, insights.ConversationInsights, "extended conversation indicates high engagement")
	assert.Contains(t, insights.ConversationInsights, "customer mood is declining")
	assert.Contains(t, insights.ConversationInsights, "1 pending actions awaiting follow-up")
	assert.Contains(t, insights.ConversationInsights, "currently discussing pricing")
}

func TestActionRecommendations_FrustratedCustomer(t *testing.T) {
	mem := baseMemory()
	mem.ShortTerm.EmotionalState.Primary = "frustrated"
	mem.ShortTerm.PendingActions = []memory.PendingAction{
		{Action: "escalate", Priority: memory.PriorityHigh, Status: memory.ActionStatusPending},
	}

	insights := Synthesize(mem)

	assert.Contains(t, insights.ActionRecommendations, "provide immediate support")
	assert.Contains(t, insights.ActionRecommendations, "address high-priority pending actions")
}

func TestRiskFactors_AngryLowTrustCustomer(t *testing.T) {
	mem := baseMemory()
	mem.ShortTerm.EmotionalState.Primary = "angry"
	mem.ShortTerm.EmotionalState.Intensity = 9
	mem.LongTerm.TrustLevel = 20

	insights := Synthesize(mem)

	assert.Contains(t, insights.RiskFactors, "high risk of customer dissatisfaction")
	assert.Contains(t, insights.RiskFactors, "low trust level requires relationship building")
}

func TestRiskFactors_ManyHighPriorityActions(t *testing.T) {
	mem := baseMemory()
	for i := 0; i < 3; i++ {
		mem.ShortTerm.PendingActions = append(mem.ShortTerm.PendingActions, memory.PendingAction{
			Action:   "follow up",
			Priority: memory.PriorityHigh,
			Status:   memory.ActionStatusPending,
		})
	}

	insights := Synthesize(mem)
	assert.Contains(t, insights.RiskFactors, "multiple high-priority actions pending")
}

func TestSynthesize_Idempotent(t *testing.T) {
	mem := baseMemory()
	mem.ShortTerm.EmotionalState.Primary = "angry"
	mem.ShortTerm.EmotionalState.Intensity = 9
	mem.LongTerm.TrustLevel = 25
	mem.ShortTerm.ActiveTopics = []string{"support"}

	first := Synthesize(mem)
	second := Synthesize(mem)

	assert.Equal(t, first, second)
}

func TestSynthesize_DoesNotMutateSnapshot(t *testing.T) {
	mem := baseMemory()
	mem.ShortTerm.ActiveTopics = []string{"pricing", "delivery"}
	before := *mem

	_ = Synthesize(mem)

	assert.Equal(t, before.ShortTerm.ActiveTopics, mem.ShortTerm.ActiveTopics)
	assert.Equal(t, before.LongTerm.TrustLevel, mem.LongTerm.TrustLevel)
}
