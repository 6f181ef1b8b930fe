package intent

import "strings"

// transitions is the authoritative state table. Most state×intent pairs are
// deliberately identity transitions; in particular nothing here moves a
// conversation into CUSTOMER_SERVICE or CLOSING (those are only reachable
// through the history heuristic). Known gap, kept as-is until product
// defines the missing rules.
var transitions = map[State]map[Intent]State{
	StateGreeting: {
		IntentOrderRequest:   StateOrderInitiation,
		IntentProductInquiry: StateProductInquiry,
	},
	StateOrderInitiation: {
		IntentOrderRequest: StateOrderConfirmation,
	},
}

// NextState advances the conversation state for a classified intent.
// Pure and table-driven: the same (state, intent) pair always yields the
// same next state.
func NextState(current State, in Intent) State {
	if current == StateGreeting {
		if next, ok := transitions[StateGreeting][in]; ok {
			return next
		}
		return StateGeneralQuestion
	}

	if current == StateOrderConfirmation {
		return StateFollowUp
	}

	if byIntent, ok := transitions[current]; ok {
		if next, ok := byIntent[in]; ok {
			return next
		}
	}

	return current
}

// Confidence scores a classification: 0.5 base, +0.3 for a known intent,
// +0.2 when there is enough history to corroborate, clamped to 1.0.
func Confidence(in Intent, recentMessageCount int) float64 {
	confidence := 0.5
	if in != IntentUnknown {
		confidence += 0.3
	}
	if recentMessageCount > 3 {
		confidence += 0.2
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

// Vocabulary for the history heuristic below.
var (
	orderWords   = []string{"order", "buy", "заказ", "куп", "buyurtma", "sotib"}
	productWords = []string{"product", "товар", "продукт", "mahsulot", "catalog", "каталог"}
	problemWords = []string{"problem", "issue", "complaint", "проблем", "жалоб", "muammo", "shikoyat"}
)

// AnalyzeHistory estimates an initial state when (re)constructing a context,
// independent of the transition table: brand-new and single-message
// conversations start at GREETING, otherwise the latest message is sniffed
// for order/product/problem vocabulary.
func AnalyzeHistory(latestFirst []string) State {
	if len(latestFirst) <= 1 {
		return StateGreeting
	}

	latest := strings.ToLower(latestFirst[0])
	switch {
	case containsAny(latest, orderWords):
		return StateOrderInitiation
	case containsAny(latest, productWords):
		return StateProductInquiry
	case containsAny(latest, problemWords):
		return StateCustomerService
	default:
		return StateGeneralQuestion
	}
}

func containsAny(text string, words []string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}
