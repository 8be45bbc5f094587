package enums

import "fmt"

// PaymentPolicy is the booking-level rule for how much the client must pay
// up front.
type PaymentPolicy string

const (
	PaymentPolicyClientChoice    PaymentPolicy = "client_choice"
	PaymentPolicyDownPaymentOnly PaymentPolicy = "down_payment_only"
	PaymentPolicyFullPaymentOnly PaymentPolicy = "full_payment_only"
)

var validPaymentPolicies = []PaymentPolicy{
	PaymentPolicyClientChoice,
	PaymentPolicyDownPaymentOnly,
	PaymentPolicyFullPaymentOnly,
}

// String implements fmt.Stringer.
func (p PaymentPolicy) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentPolicy.
func (p PaymentPolicy) IsValid() bool {
	for _, candidate := range validPaymentPolicies {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentPolicy converts raw input into a PaymentPolicy.
func ParsePaymentPolicy(value string) (PaymentPolicy, error) {
	for _, candidate := range validPaymentPolicies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment policy %q", value)
}
