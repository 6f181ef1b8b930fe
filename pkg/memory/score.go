package memory

// computeMemoryScore derives the 0-100 richness metric from the rest of the
// record. It is a pure function of the record; callers must never set
// MemoryScore directly. Weights are a tuning choice; the contract is that
// more remembered material never lowers the score and the result stays
// inside [0, 100].
func computeMemoryScore(m *ConversationMemory) int {
	score := 0.0

	score += float64(len(m.ShortTerm.RecentMessages)) * 1.0
	score += float64(len(m.ShortTerm.ActiveTopics)) * 2.0
	score += m.ShortTerm.EmotionalState.Confidence * 10.0

	score += float64(len(m.LongTerm.RelationshipHistory)) * 2.0
	score += float64(len(m.LongTerm.PurchasePatterns)) * 5.0
	score += float64(m.LongTerm.TrustLevel) * 0.5
	score += float64(len(m.LongTerm.LearningInsights)) * 3.0

	score += float64(len(m.Episodic)) * 2.0

	score += float64(len(m.Semantic.ProductInterests)) * 1.0
	score += float64(len(m.LongTerm.Preferences)) * 1.0

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return int(score)
}
