package enums

import "fmt"

// PaymentMethodType is the user-facing payment method taxonomy.
type PaymentMethodType string

const (
	PaymentMethodTypeBankTransfer   PaymentMethodType = "bank_transfer"
	PaymentMethodTypeVisaMastercard PaymentMethodType = "visa_mastercard"
	PaymentMethodTypeAmex           PaymentMethodType = "amex"
	PaymentMethodTypeCash           PaymentMethodType = "cash"
	PaymentMethodTypeCrypto         PaymentMethodType = "crypto"
)

var validPaymentMethodTypes = []PaymentMethodType{
	PaymentMethodTypeBankTransfer,
	PaymentMethodTypeVisaMastercard,
	PaymentMethodTypeAmex,
	PaymentMethodTypeCash,
	PaymentMethodTypeCrypto,
}

// String implements fmt.Stringer.
func (p PaymentMethodType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethodType.
func (p PaymentMethodType) IsValid() bool {
	for _, candidate := range validPaymentMethodTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethodType converts raw input into a PaymentMethodType.
func ParsePaymentMethodType(value string) (PaymentMethodType, error) {
	for _, candidate := range validPaymentMethodTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method type %q", value)
}
