package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordTopicExtractor(t *testing.T) {
	extractor := NewKeywordTopicExtractor()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"english purchase", "I want to buy a phone", []string{"purchase"}},
		{"uzbek pricing", "Bu qancha turadi?", []string{"pricing"}},
		{"russian delivery", "Когда будет доставка?", []string{"delivery"}},
		{"multiple topics", "How much is delivery for my order?", []string{"purchase", "pricing", "delivery"}},
		{"gratitude", "Rahmat, thank you!", []string{"gratitude"}},
		{"no match", "hello there", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractor.Extract(tt.text))
		})
	}
}

func TestRankTopics_OrdersByFrequency(t *testing.T) {
	messages := []MessageSummary{
		{Topics: []string{"pricing", "delivery"}},
		{Topics: []string{"pricing"}},
		{Topics: []string{"pricing", "purchase"}},
		{Topics: []string{"delivery"}},
	}

	ranked := rankTopics(messages, MaxActiveTopics)

	assert.Equal(t, []string{"pricing", "delivery", "purchase"}, ranked)
}

func TestRankTopics_RespectsLimit(t *testing.T) {
	messages := []MessageSummary{
		{Topics: []string{"purchase", "pricing", "products", "delivery", "support", "gratitude"}},
	}

	ranked := rankTopics(messages, MaxActiveTopics)
	assert.Len(t, ranked, MaxActiveTopics)
}

func TestContextLabel(t *testing.T) {
	assert.Equal(t, "general conversation", contextLabel(nil))
	assert.Equal(t, "discussing pricing, delivery", contextLabel([]string{"pricing", "delivery"}))
}
