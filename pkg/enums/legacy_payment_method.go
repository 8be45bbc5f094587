package enums

import "fmt"

// LegacyPaymentMethod is the persisted method enum carried over from the
// previous back-office system. New records still write it so downstream
// exports keep working.
type LegacyPaymentMethod string

const (
	LegacyPaymentMethodCard  LegacyPaymentMethod = "card"
	LegacyPaymentMethodWire  LegacyPaymentMethod = "wire"
	LegacyPaymentMethodPOS   LegacyPaymentMethod = "pos"
	LegacyPaymentMethodOther LegacyPaymentMethod = "other"
)

var validLegacyPaymentMethods = []LegacyPaymentMethod{
	LegacyPaymentMethodCard,
	LegacyPaymentMethodWire,
	LegacyPaymentMethodPOS,
	LegacyPaymentMethodOther,
}

// String implements fmt.Stringer.
func (l LegacyPaymentMethod) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LegacyPaymentMethod.
func (l LegacyPaymentMethod) IsValid() bool {
	for _, candidate := range validLegacyPaymentMethods {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLegacyPaymentMethod converts raw input into a LegacyPaymentMethod.
func ParseLegacyPaymentMethod(value string) (LegacyPaymentMethod, error) {
	for _, candidate := range validLegacyPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid legacy payment method %q", value)
}
