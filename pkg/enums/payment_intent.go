package enums

import "fmt"

// PaymentIntent is the business reason a payment exists.
type PaymentIntent string

const (
	PaymentIntentDownPayment     PaymentIntent = "down_payment"
	PaymentIntentBalancePayment  PaymentIntent = "balance_payment"
	PaymentIntentFullPayment     PaymentIntent = "full_payment"
	PaymentIntentExtras          PaymentIntent = "extras"
	PaymentIntentFines           PaymentIntent = "fines"
	PaymentIntentOther           PaymentIntent = "other"
	PaymentIntentSecurityDeposit PaymentIntent = "security_deposit"
)

var validPaymentIntents = []PaymentIntent{
	PaymentIntentDownPayment,
	PaymentIntentBalancePayment,
	PaymentIntentFullPayment,
	PaymentIntentExtras,
	PaymentIntentFines,
	PaymentIntentOther,
	PaymentIntentSecurityDeposit,
}

// String implements fmt.Stringer.
func (p PaymentIntent) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentIntent.
func (p PaymentIntent) IsValid() bool {
	for _, candidate := range validPaymentIntents {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentIntent converts raw input into a PaymentIntent.
func ParsePaymentIntent(value string) (PaymentIntent, error) {
	for _, candidate := range validPaymentIntents {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment intent %q", value)
}
