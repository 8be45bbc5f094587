package enums

import "fmt"

// PaymentChoice is the client-selected amount option when the booking policy
// allows a choice.
type PaymentChoice string

const (
	PaymentChoiceDownPayment PaymentChoice = "down_payment"
	PaymentChoiceFullPayment PaymentChoice = "full_payment"
)

var validPaymentChoices = []PaymentChoice{
	PaymentChoiceDownPayment,
	PaymentChoiceFullPayment,
}

// String implements fmt.Stringer.
func (p PaymentChoice) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentChoice.
func (p PaymentChoice) IsValid() bool {
	for _, candidate := range validPaymentChoices {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentChoice converts raw input into a PaymentChoice.
func ParsePaymentChoice(value string) (PaymentChoice, error) {
	for _, candidate := range validPaymentChoices {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment choice %q", value)
}
