// Package language defines the language-detection boundary and the cultural
// profiles attached to a conversation. Detection here is a lightweight
// heuristic default; deployments can plug in a real detection service behind
// the Detector interface.
package language

// Detection is the result of detecting the language of a piece of text.
type Detection struct {
	// Code is the ISO 639-1 language code ("uz", "ru", "en")
	Code string `json:"code"`

	// Name is the human-readable language name
	Name string `json:"name"`

	// Confidence is the detector's certainty (0.0-1.0)
	Confidence float64 `json:"confidence"`

	// IsPrimary marks the language chosen for the conversation
	IsPrimary bool `json:"is_primary"`
}

// CulturalContext describes communication conventions for a language region.
type CulturalContext struct {
	// Formality is the expected register ("formal", "semi-formal", "casual")
	Formality string `json:"formality"`

	// GreetingStyle describes how greetings are usually phrased
	GreetingStyle string `json:"greeting_style"`

	// BusinessEtiquette lists conventions the reply generator should honor
	BusinessEtiquette []string `json:"business_etiquette"`

	// Display formats for the region
	NumberFormat   string `json:"number_format"`
	DateFormat     string `json:"date_format"`
	CurrencyFormat string `json:"currency_format"`
}

// Context is the language view carried on a conversation context.
type Context struct {
	// DetectedLanguage is the best detection so far; it is only replaced
	// by a detection with strictly higher confidence
	DetectedLanguage Detection `json:"detected_language"`

	// CulturalProfile is the profile for the detected language, nil when
	// the language is unknown
	CulturalProfile *CulturalContext `json:"cultural_profile,omitempty"`
}

// Detector detects the language of customer text.
type Detector interface {
	// DetectLanguage classifies a single piece of text.
	DetectLanguage(text string) Detection

	// GetCulturalContext returns the cultural profile for a language code,
	// or nil when the code is unknown.
	GetCulturalContext(code string) *CulturalContext
}
