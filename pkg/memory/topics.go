package memory

import "strings"

// TopicExtractor pulls discussion topics out of message text. The default is
// keyword matching over a fixed vocabulary; it is an interface so a real
// classifier can replace it without touching the memory store contract.
type TopicExtractor interface {
	Extract(text string) []string
}

// Fixed topic vocabulary with trigger phrases in Uzbek, Russian and English.
var topicVocabulary = []struct {
	topic    string
	keywords []string
}{
	{"purchase", []string{"buy", "order", "purchase", "buyurtma", "sotib", "заказ", "куп"}},
	{"pricing", []string{"price", "cost", "how much", "narx", "qancha", "цена", "стоимость", "сколько"}},
	{"products", []string{"product", "catalog", "mahsulot", "tovar", "товар", "продукт", "каталог"}},
	{"delivery", []string{"delivery", "deliver", "shipping", "yetkazib", "доставка", "доставить"}},
	{"support", []string{"help", "problem", "issue", "yordam", "muammo", "помощь", "проблем"}},
	{"gratitude", []string{"thank", "thanks", "rahmat", "спасибо"}},
}

// KeywordTopicExtractor is the default TopicExtractor.
type KeywordTopicExtractor struct{}

// NewKeywordTopicExtractor creates the default extractor.
func NewKeywordTopicExtractor() *KeywordTopicExtractor {
	return &KeywordTopicExtractor{}
}

// Extract implements TopicExtractor.
func (e *KeywordTopicExtractor) Extract(text string) []string {
	lower := strings.ToLower(text)

	var topics []string
	for _, entry := range topicVocabulary {
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				topics = append(topics, entry.topic)
				break
			}
		}
	}
	return topics
}

// rankTopics counts topic occurrences across message summaries and returns
// the limit most frequent, ties broken by vocabulary order.
func rankTopics(messages []MessageSummary, limit int) []string {
	counts := make(map[string]int)
	for _, msg := range messages {
		for _, topic := range msg.Topics {
			counts[topic]++
		}
	}

	var ranked []string
	for _, entry := range topicVocabulary {
		if counts[entry.topic] > 0 {
			ranked = append(ranked, entry.topic)
		}
	}

	// Selection sort by frequency; the list is at most the vocabulary size
	for i := 0; i < len(ranked); i++ {
		best := i
		for j := i + 1; j < len(ranked); j++ {
			if counts[ranked[j]] > counts[ranked[best]] {
				best = j
			}
		}
		ranked[i], ranked[best] = ranked[best], ranked[i]
	}

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// contextLabel derives the short-term memory's free-text context label from
// the active topics.
func contextLabel(topics []string) string {
	if len(topics) == 0 {
		return "general conversation"
	}
	return "discussing " + strings.Join(topics, ", ")
}
