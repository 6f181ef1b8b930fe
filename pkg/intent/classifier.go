package intent

import (
	"context"
	"strings"

	"github.com/savdolab/convoctx/pkg/log"
	"github.com/savdolab/convoctx/pkg/scripting"
)

// Classifier turns raw message text into an intent. The default is keyword
// matching; deployments can substitute a statistical classifier without
// touching the state machine or memory logic.
type Classifier interface {
	Classify(ctx context.Context, text string) Intent
}

// keywordSet pairs an intent with its trigger phrases across the three
// supported languages (Uzbek, Russian, English).
type keywordSet struct {
	intent   Intent
	keywords []string
}

// classificationOrder is the fixed priority: the first matching set wins.
var classificationOrder = []keywordSet{
	{
		intent: IntentGreeting,
		keywords: []string{
			"hello", "hi ", "good morning", "good afternoon", "good evening",
			"salom", "assalomu alaykum",
			"привет", "здравствуйте", "добрый день", "доброе утро",
		},
	},
	{
		intent: IntentOrderRequest,
		keywords: []string{
			"i want to order", "order", "buy", "purchase",
			"buyurtma", "sotib olmoqchiman", "olmoqchiman",
			"заказ", "купить", "куплю", "хочу заказать",
		},
	},
	{
		intent: IntentProductInquiry,
		keywords: []string{
			"product", "catalog", "tell me about", "what do you sell",
			"mahsulot", "tovar haqida", "katalog",
			"товар", "продукт", "каталог", "ассортимент",
		},
	},
	{
		intent: IntentPricingInquiry,
		keywords: []string{
			"price", "cost", "how much",
			"narxi", "qancha turadi", "qancha",
			"цена", "стоимость", "сколько стоит",
		},
	},
	{
		intent: IntentAvailabilityCheck,
		keywords: []string{
			"available", "in stock", "do you have",
			"bormi", "mavjudmi",
			"есть ли", "в наличии", "наличие",
		},
	},
	{
		intent: IntentComplaint,
		keywords: []string{
			"complaint", "problem", "issue", "not working", "broken",
			"shikoyat", "muammo", "ishlamayapti", "buzilgan",
			"жалоба", "проблема", "не работает", "сломан",
		},
	},
	{
		intent: IntentOrderStatus,
		keywords: []string{
			"order status", "where is my order", "track my order",
			"buyurtmam qayerda", "buyurtma holati",
			"статус заказа", "где мой заказ", "отследить",
		},
	},
}

// KeywordClassifier is the default classifier: case-insensitive substring
// matching against per-intent keyword sets, first match in priority order.
type KeywordClassifier struct{}

// NewKeywordClassifier creates the default keyword classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify implements Classifier.
func (c *KeywordClassifier) Classify(ctx context.Context, text string) Intent {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return IntentUnknown
	}

	for _, set := range classificationOrder {
		for _, keyword := range set.keywords {
			if strings.Contains(lower, keyword) {
				return set.intent
			}
		}
	}

	return IntentUnknown
}

// luaClassifyFunc is the Lua hook consulted before the fallback classifier.
const luaClassifyFunc = "classify_intent"

// HookClassifier consults a tenant Lua rule hook first and falls back to an
// inner classifier when the hook is absent, errors, or returns nothing.
type HookClassifier struct {
	engine   scripting.Engine
	fallback Classifier
}

// NewHookClassifier wraps fallback with the Lua hook from engine.
func NewHookClassifier(engine scripting.Engine, fallback Classifier) *HookClassifier {
	return &HookClassifier{engine: engine, fallback: fallback}
}

// Classify implements Classifier.
func (c *HookClassifier) Classify(ctx context.Context, text string) Intent {
	if c.engine != nil && c.engine.HasFunction(luaClassifyFunc) {
		result, err := c.engine.ExecuteFunction(ctx, luaClassifyFunc, text)
		if err != nil {
			log.WarnContext(ctx, "Intent rule hook failed, using default classifier", "error", err)
		} else if name, ok := result.(string); ok && IsKnownIntent(name) {
			return Intent(name)
		}
	}

	return c.fallback.Classify(ctx, text)
}
