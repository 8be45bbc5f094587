package payments

import (
	"fmt"

	"github.com/rentiva/rentiva-backend/pkg/enums"
	pkgerrors "github.com/rentiva/rentiva-backend/pkg/errors"
)

// ToLegacyMethod maps a user-facing method type onto the persisted legacy
// method taxonomy. The mapping is total over the known method types; an
// unknown value fails loudly so a future taxonomy addition cannot be
// silently recorded as "other".
func ToLegacyMethod(methodType enums.PaymentMethodType) (enums.LegacyPaymentMethod, error) {
	switch methodType {
	case enums.PaymentMethodTypeBankTransfer:
		return enums.LegacyPaymentMethodWire, nil
	case enums.PaymentMethodTypeVisaMastercard, enums.PaymentMethodTypeAmex:
		return enums.LegacyPaymentMethodCard, nil
	case enums.PaymentMethodTypeCash:
		return enums.LegacyPaymentMethodPOS, nil
	case enums.PaymentMethodTypeCrypto:
		return enums.LegacyPaymentMethodOther, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeUnmappedEnum,
			fmt.Sprintf("no legacy method for method type %q", methodType))
	}
}

// ToLegacyKind maps a payment intent onto the persisted legacy kind taxonomy.
// security_deposit intentionally has no legacy kind; deposit holds live in
// their own table and never pass through this mapper.
func ToLegacyKind(intent enums.PaymentIntent) (enums.LegacyPaymentKind, error) {
	switch intent {
	case enums.PaymentIntentDownPayment:
		return enums.LegacyPaymentKindDeposit, nil
	case enums.PaymentIntentBalancePayment:
		return enums.LegacyPaymentKindBalance, nil
	case enums.PaymentIntentFullPayment, enums.PaymentIntentExtras,
		enums.PaymentIntentFines, enums.PaymentIntentOther:
		return enums.LegacyPaymentKindFull, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeUnmappedEnum,
			fmt.Sprintf("no legacy kind for intent %q", intent))
	}
}
