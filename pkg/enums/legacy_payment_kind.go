package enums

import "fmt"

// LegacyPaymentKind is the persisted payment kind enum from the previous
// back-office system.
type LegacyPaymentKind string

const (
	LegacyPaymentKindDeposit LegacyPaymentKind = "deposit"
	LegacyPaymentKindBalance LegacyPaymentKind = "balance"
	LegacyPaymentKindFull    LegacyPaymentKind = "full"
	LegacyPaymentKindRental  LegacyPaymentKind = "rental"
)

var validLegacyPaymentKinds = []LegacyPaymentKind{
	LegacyPaymentKindDeposit,
	LegacyPaymentKindBalance,
	LegacyPaymentKindFull,
	LegacyPaymentKindRental,
}

// String implements fmt.Stringer.
func (l LegacyPaymentKind) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LegacyPaymentKind.
func (l LegacyPaymentKind) IsValid() bool {
	for _, candidate := range validLegacyPaymentKinds {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLegacyPaymentKind converts raw input into a LegacyPaymentKind.
func ParseLegacyPaymentKind(value string) (LegacyPaymentKind, error) {
	for _, candidate := range validLegacyPaymentKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid legacy payment kind %q", value)
}
