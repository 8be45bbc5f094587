package payments

import (
	"github.com/shopspring/decimal"

	"github.com/rentiva/rentiva-backend/pkg/db/models"
	"github.com/rentiva/rentiva-backend/pkg/enums"
)

var hundred = decimal.NewFromInt(100)

// RequiredAmount computes the amount a customer owes up front for the given
// booking and choice. Pure; the only normalization is clamping the down
// payment percentage to [0,100].
//
// full_payment_only bookings and an explicit full_payment choice always owe
// the total. down_payment_only bookings, and client_choice bookings where the
// customer picked down_payment, owe total x percent/100 rounded half-up to
// two decimals.
func RequiredAmount(booking *models.Booking, choice enums.PaymentChoice) decimal.Decimal {
	if booking == nil {
		return decimal.Zero
	}

	total := booking.AmountTotal

	switch {
	case booking.PaymentPolicy == enums.PaymentPolicyFullPaymentOnly,
		choice == enums.PaymentChoiceFullPayment:
		return total.Round(2)

	case booking.PaymentPolicy == enums.PaymentPolicyDownPaymentOnly,
		booking.PaymentPolicy == enums.PaymentPolicyClientChoice && choice == enums.PaymentChoiceDownPayment:
		percent := clampPercent(booking.DownPaymentPercent)
		return total.Mul(percent).Div(hundred).Round(2)

	default:
		return total.Round(2)
	}
}

func clampPercent(percent decimal.Decimal) decimal.Decimal {
	if percent.IsNegative() {
		return decimal.Zero
	}
	if percent.GreaterThan(hundred) {
		return hundred
	}
	return percent
}
