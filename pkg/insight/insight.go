// Package insight derives textual observations, recommended actions and risk
// factors from a conversation memory snapshot. Every function here is pure:
// no I/O, no mutation of the snapshot, deterministic for the same input.
package insight

import (
	"fmt"
	"strings"

	"github.com/savdolab/convoctx/pkg/memory"
)

// Insights is the synthesized view handed to the prompt-building layer.
type Insights struct {
	CustomerInsights      []string `json:"customer_insights"`
	ConversationInsights  []string `json:"conversation_insights"`
	ActionRecommendations []string `json:"action_recommendations"`
	RiskFactors           []string `json:"risk_factors"`
}

// Synthesize derives all insight categories from the memory snapshot.
func Synthesize(mem *memory.ConversationMemory) Insights {
	return Insights{
		CustomerInsights:      customerInsights(mem),
		ConversationInsights:  conversationInsights(mem),
		ActionRecommendations: actionRecommendations(mem),
		RiskFactors:           riskFactors(mem),
	}
}

func customerInsights(mem *memory.ConversationMemory) []string {
	var out []string

	style := mem.LongTerm.CommunicationStyle
	switch style.MessageLength {
	case "short":
		out = append(out, "prefers concise communication")
	case "long":
		out = append(out, "prefers detailed communication")
	}

	if style.Formality == "formal" {
		out = append(out, "expects formal tone")
	}

	if mem.ShortTerm.EmotionalState.Intensity > 7 {
		out = append(out, "high emotional engagement")
	}

	if mem.LongTerm.TrustLevel > 75 {
		out = append(out, "established trust relationship")
	}

	if topics := topTopics(mem, 3); len(topics) > 0 {
		out = append(out, "frequently discusses: "+strings.Join(topics, ", "))
	}

	if len(mem.Semantic.ProductInterests) > 0 {
		out = append(out, "interested in: "+strings.Join(mem.Semantic.ProductInterests, ", "))
	}

	return out
}

func conversationInsights(mem *memory.ConversationMemory) []string {
	var out []string

	if len(mem.ShortTerm.RecentMessages) > 10 {
		out = append(out, "extended conversation indicates high engagement")
	}

	switch mem.ShortTerm.EmotionalState.Trend {
	case "improving":
		out = append(out, "customer mood is improving")
	case "declining":
		out = append(out, "customer mood is declining")
	}

	if n := len(pendingActions(mem)); n > 0 {
		out = append(out, fmt.Sprintf("%d pending actions awaiting follow-up", n))
	}

	if mem.ShortTerm.CurrentContext != "" && mem.ShortTerm.CurrentContext != "general conversation" {
		out = append(out, "currently "+mem.ShortTerm.CurrentContext)
	}

	return out
}

func actionRecommendations(mem *memory.ConversationMemory) []string {
	var out []string

	switch mem.ShortTerm.EmotionalState.Primary {
	case "frustrated":
		out = append(out, "provide immediate support")
	case "angry":
		out = append(out, "de-escalate and offer resolution options")
	case "confused":
		out = append(out, "simplify explanations and confirm understanding")
	}

	for _, action := range pendingActions(mem) {
		if action.Priority == memory.PriorityHigh {
			out = append(out, "address high-priority pending actions")
			break
		}
	}

	if mem.LongTerm.TrustLevel < 40 {
		out = append(out, "focus on building trust before upselling")
	}

	if mem.ShortTerm.EmotionalState.Trend == "declining" {
		out = append(out, "check in on customer satisfaction")
	}

	return out
}

func riskFactors(mem *memory.ConversationMemory) []string {
	var out []string

	es := mem.ShortTerm.EmotionalState
	if es.Primary == "angry" && es.Intensity > 8 {
		out = append(out, "high risk of customer dissatisfaction")
	}

	if mem.LongTerm.TrustLevel < 30 {
		out = append(out, "low trust level requires relationship building")
	}

	highPriority := 0
	for _, action := range pendingActions(mem) {
		if action.Priority == memory.PriorityHigh {
			highPriority++
		}
	}
	if highPriority > 2 {
		out = append(out, "multiple high-priority actions pending")
	}

	if recentNegativeEvents(mem) >= 2 {
		out = append(out, "repeated negative interactions in recent history")
	}

	return out
}

// pendingActions filters to actions still awaiting completion.
func pendingActions(mem *memory.ConversationMemory) []memory.PendingAction {
	var out []memory.PendingAction
	for _, action := range mem.ShortTerm.PendingActions {
		if action.Status == memory.ActionStatusPending {
			out = append(out, action)
		}
	}
	return out
}

// topTopics counts topic frequency across recent messages, preserving the
// ActiveTopics ranking where available.
func topTopics(mem *memory.ConversationMemory, limit int) []string {
	topics := mem.ShortTerm.ActiveTopics
	if len(topics) > limit {
		topics = topics[:limit]
	}
	return topics
}

// recentNegativeEvents counts negative-outcome events among the ten most
// recent episodic entries.
func recentNegativeEvents(mem *memory.ConversationMemory) int {
	n := len(mem.Episodic)
	if n > 10 {
		n = 10
	}
	count := 0
	for _, event := range mem.Episodic[:n] {
		if event.Outcome == "negative" {
			count++
		}
	}
	return count
}
