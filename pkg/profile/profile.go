// Package profile derives a customer relationship profile from order history
// and conversation memory. Profiles are recomputed per assembly and never
// persisted on their own.
package profile

import (
	"context"
	"fmt"
	"sort"

	"github.com/savdolab/convoctx/pkg/chat"
	"github.com/savdolab/convoctx/pkg/insight"
	"github.com/savdolab/convoctx/pkg/language"
	"github.com/savdolab/convoctx/pkg/memory"
	"github.com/savdolab/convoctx/pkg/store"
)

// MaxFavoriteCategories caps the frequency-ranked category list.
const MaxFavoriteCategories = 3

// CustomerProfile is the derived relationship snapshot merged into the
// conversation context.
type CustomerProfile struct {
	CustomerID chat.CustomerID `json:"customer_id"`

	// RelationshipScore summarizes the relationship strength (0-100)
	RelationshipScore int `json:"relationship_score"`

	TotalOrders        int      `json:"total_orders"`
	AverageOrderValue  float64  `json:"average_order_value"`
	FavoriteCategories []string `json:"favorite_categories,omitempty"`

	PreferredLanguage  string                    `json:"preferred_language,omitempty"`
	CommunicationStyle memory.CommunicationStyle `json:"communication_style"`
	Preferences        map[string]string         `json:"preferences,omitempty"`

	Insights insight.Insights `json:"insights"`
}

// Builder assembles customer profiles from the order store and a memory
// snapshot.
type Builder struct {
	orders store.OrderStore
}

// NewBuilder creates a profile builder over the given order store.
func NewBuilder(orders store.OrderStore) *Builder {
	return &Builder{orders: orders}
}

// Build fetches the customer's order history and merges it with the memory
// snapshot and language context into a fresh profile. Order store failures
// propagate to the caller unchanged.
func (b *Builder) Build(ctx context.Context, customerID chat.CustomerID, mem *memory.ConversationMemory, lang *language.Context) (*CustomerProfile, error) {
	orders, err := b.orders.FindOrdersForCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order history: %w", err)
	}

	p := &CustomerProfile{
		CustomerID:         customerID,
		TotalOrders:        len(orders),
		AverageOrderValue:  averageOrderValue(orders),
		FavoriteCategories: favoriteCategories(orders, MaxFavoriteCategories),
		CommunicationStyle: mem.LongTerm.CommunicationStyle,
		Preferences:        mem.LongTerm.Preferences,
		Insights:           insight.Synthesize(mem),
	}

	if lang != nil {
		p.PreferredLanguage = lang.DetectedLanguage.Code
	} else if mem.LongTerm.CommunicationStyle.PreferredLanguage != "" {
		p.PreferredLanguage = mem.LongTerm.CommunicationStyle.PreferredLanguage
	}

	p.RelationshipScore = relationshipScore(mem, len(orders))

	return p, nil
}

// relationshipScore blends trust level, order history depth and recent
// satisfaction into a 0-100 score. Trust carries half the weight.
func relationshipScore(mem *memory.ConversationMemory, totalOrders int) int {
	score := float64(mem.LongTerm.TrustLevel) * 0.5

	orderBonus := float64(totalOrders) * 5.0
	if orderBonus > 30 {
		orderBonus = 30
	}
	score += orderBonus

	if avg, ok := averageSatisfaction(mem); ok {
		score += avg * 20.0
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return int(score)
}

func averageSatisfaction(mem *memory.ConversationMemory) (float64, bool) {
	history := mem.LongTerm.SatisfactionHistory
	if len(history) == 0 {
		return 0, false
	}
	var total float64
	for _, record := range history {
		total += record.Score
	}
	return total / float64(len(history)), true
}

func averageOrderValue(orders []store.Order) float64 {
	if len(orders) == 0 {
		return 0
	}
	var total float64
	for _, order := range orders {
		total += order.Total
	}
	return total / float64(len(orders))
}

// favoriteCategories ranks item categories by total purchased quantity.
func favoriteCategories(orders []store.Order, limit int) []string {
	counts := make(map[string]int)
	var ranked []string
	for _, order := range orders {
		for _, item := range order.Items {
			if item.Category == "" {
				continue
			}
			if counts[item.Category] == 0 {
				ranked = append(ranked, item.Category)
			}
			qty := item.Quantity
			if qty <= 0 {
				qty = 1
			}
			counts[item.Category] += qty
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return counts[ranked[i]] > counts[ranked[j]]
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
