// Package intent classifies customer messages and advances the conversation
// through the fixed sales-flow state machine.
package intent

// State is the conversation's position in the sales-flow lifecycle.
type State string

// Conversation states
const (
	StateGreeting          State = "GREETING"
	StateProductInquiry    State = "PRODUCT_INQUIRY"
	StateOrderInitiation   State = "ORDER_INITIATION"
	StateOrderConfirmation State = "ORDER_CONFIRMATION"
	StateCustomerService   State = "CUSTOMER_SERVICE"
	StateFollowUp          State = "FOLLOW_UP"
	StateClosing           State = "CLOSING"
	StateGeneralQuestion   State = "GENERAL_QUESTION"
)

// Intent is the classified purpose of a customer message.
type Intent string

// Message intents
const (
	IntentGreeting          Intent = "GREETING"
	IntentProductInquiry    Intent = "PRODUCT_INQUIRY"
	IntentOrderRequest      Intent = "ORDER_REQUEST"
	IntentOrderStatus       Intent = "ORDER_STATUS"
	IntentComplaint         Intent = "COMPLAINT"
	IntentFeedback          Intent = "FEEDBACK"
	IntentGeneralQuestion   Intent = "GENERAL_QUESTION"
	IntentPricingInquiry    Intent = "PRICING_INQUIRY"
	IntentAvailabilityCheck Intent = "AVAILABILITY_CHECK"
	IntentCustomerService   Intent = "CUSTOMER_SERVICE"
	IntentUnknown           Intent = "UNKNOWN"
)

// knownIntents is the set of valid intent values, used to validate
// classifications coming from tenant rule hooks.
var knownIntents = map[Intent]struct{}{
	IntentGreeting:          {},
	IntentProductInquiry:    {},
	IntentOrderRequest:      {},
	IntentOrderStatus:       {},
	IntentComplaint:         {},
	IntentFeedback:          {},
	IntentGeneralQuestion:   {},
	IntentPricingInquiry:    {},
	IntentAvailabilityCheck: {},
	IntentCustomerService:   {},
	IntentUnknown:           {},
}

// IsKnownIntent reports whether value names a valid intent.
func IsKnownIntent(value string) bool {
	_, ok := knownIntents[Intent(value)]
	return ok
}
