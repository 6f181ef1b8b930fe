package language

import (
	"strings"
	"unicode"
)

// Uzbek function words and Latin-alphabet markers that rarely appear in
// English text.
var uzbekMarkers = []string{
	"salom", "assalomu", "rahmat", "iltimos", "qancha", "narxi", "narxlar",
	"buyurtma", "mahsulot", "yetkazib", "bormi", "kerak", "qanday", "uchun",
	"yaxshi", "so'm", "to'lov", "g'",
}

// Russian function words, checked after the Cyrillic-script shortcut.
var russianMarkers = []string{
	"привет", "здравствуйте", "спасибо", "пожалуйста", "сколько", "цена",
	"заказ", "товар", "доставка", "есть", "нужно", "как", "для",
}

// KeywordDetector is the default Detector: script sniffing plus marker-word
// matching over a small vocabulary. It is intentionally simple; swap it out
// behind the Detector interface for anything statistical.
type KeywordDetector struct {
	cultural map[string]*CulturalContext
}

// NewKeywordDetector creates the default detector with the built-in
// cultural profiles.
func NewKeywordDetector() *KeywordDetector {
	return &KeywordDetector{cultural: culturalContexts()}
}

// DetectLanguage implements Detector.
func (d *KeywordDetector) DetectLanguage(text string) Detection {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Detection{Code: "en", Name: "English", Confidence: 0.3}
	}

	lower := strings.ToLower(trimmed)

	// Cyrillic script is a strong Russian signal in this market
	if ratio := cyrillicRatio(trimmed); ratio > 0.3 {
		confidence := 0.6 + ratio*0.4
		confidence += markerBoost(lower, russianMarkers)
		return Detection{Code: "ru", Name: "Russian", Confidence: clamp(confidence)}
	}

	if boost := markerBoost(lower, uzbekMarkers); boost > 0 {
		return Detection{Code: "uz", Name: "Uzbek", Confidence: clamp(0.5 + boost)}
	}

	// Latin script without Uzbek markers defaults to English
	return Detection{Code: "en", Name: "English", Confidence: 0.6}
}

// GetCulturalContext implements Detector.
func (d *KeywordDetector) GetCulturalContext(code string) *CulturalContext {
	return d.cultural[strings.ToLower(code)]
}

// DetectPrimary runs detection across several user messages and returns the
// highest-confidence result, marked primary.
func DetectPrimary(d Detector, texts []string) Detection {
	best := Detection{Code: "en", Name: "English", Confidence: 0.3}
	for _, text := range texts {
		if detected := d.DetectLanguage(text); detected.Confidence > best.Confidence {
			best = detected
		}
	}
	best.IsPrimary = true
	return best
}

func cyrillicRatio(text string) float64 {
	var letters, cyrillic int
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.Is(unicode.Cyrillic, r) {
				cyrillic++
			}
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(cyrillic) / float64(letters)
}

func markerBoost(lower string, markers []string) float64 {
	var hits int
	for _, marker := range markers {
		if strings.Contains(lower, marker) {
			hits++
		}
	}
	return float64(hits) * 0.15
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

func culturalContexts() map[string]*CulturalContext {
	return map[string]*CulturalContext{
		"uz": {
			Formality:     "formal",
			GreetingStyle: "respectful, often religiously inflected (assalomu alaykum)",
			BusinessEtiquette: []string{
				"address customers with hurmatli or respectful plural forms",
				"thank the customer before closing",
				"avoid pressuring; suggest rather than push",
			},
			NumberFormat:   "1 234,56",
			DateFormat:     "DD.MM.YYYY",
			CurrencyFormat: "12 500 so'm",
		},
		"ru": {
			Formality:     "formal",
			GreetingStyle: "polite plural form (здравствуйте)",
			BusinessEtiquette: []string{
				"use вы until invited otherwise",
				"be direct about prices and availability",
			},
			NumberFormat:   "1 234,56",
			DateFormat:     "DD.MM.YYYY",
			CurrencyFormat: "12 500 сум",
		},
		"en": {
			Formality:     "semi-formal",
			GreetingStyle: "friendly and brief",
			BusinessEtiquette: []string{
				"get to the point quickly",
				"confirm order details explicitly",
			},
			NumberFormat:   "1,234.56",
			DateFormat:     "MM/DD/YYYY",
			CurrencyFormat: "UZS 12,500",
		},
	}
}
