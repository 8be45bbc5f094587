package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentiva/rentiva-backend/pkg/enums"
	pkgerrors "github.com/rentiva/rentiva-backend/pkg/errors"
)

func TestToLegacyMethod(t *testing.T) {
	tests := map[enums.PaymentMethodType]enums.LegacyPaymentMethod{
		enums.PaymentMethodTypeBankTransfer:   enums.LegacyPaymentMethodWire,
		enums.PaymentMethodTypeVisaMastercard: enums.LegacyPaymentMethodCard,
		enums.PaymentMethodTypeAmex:           enums.LegacyPaymentMethodCard,
		enums.PaymentMethodTypeCash:           enums.LegacyPaymentMethodPOS,
		enums.PaymentMethodTypeCrypto:         enums.LegacyPaymentMethodOther,
	}
	for methodType, want := range tests {
		got, err := ToLegacyMethod(methodType)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestToLegacyMethodUnmappedFailsLoudly(t *testing.T) {
	_, err := ToLegacyMethod(enums.PaymentMethodType("apple_pay"))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnmappedEnum, pkgerrors.As(err).Code())
}

func TestToLegacyKind(t *testing.T) {
	tests := map[enums.PaymentIntent]enums.LegacyPaymentKind{
		enums.PaymentIntentDownPayment:    enums.LegacyPaymentKindDeposit,
		enums.PaymentIntentBalancePayment: enums.LegacyPaymentKindBalance,
		enums.PaymentIntentFullPayment:    enums.LegacyPaymentKindFull,
		enums.PaymentIntentExtras:         enums.LegacyPaymentKindFull,
		enums.PaymentIntentFines:          enums.LegacyPaymentKindFull,
		enums.PaymentIntentOther:          enums.LegacyPaymentKindFull,
	}
	for intent, want := range tests {
		got, err := ToLegacyKind(intent)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestToLegacyKindUnmappedFailsLoudly(t *testing.T) {
	// Deposit holds never pass through the mapper.
	_, err := ToLegacyKind(enums.PaymentIntentSecurityDeposit)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnmappedEnum, pkgerrors.As(err).Code())

	_, err = ToLegacyKind(enums.PaymentIntent("subscription"))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnmappedEnum, pkgerrors.As(err).Code())
}
