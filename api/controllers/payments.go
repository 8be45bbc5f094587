package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rentiva/rentiva-backend/api/responses"
	"github.com/rentiva/rentiva-backend/api/validators"
	"github.com/rentiva/rentiva-backend/internal/payments"
	"github.com/rentiva/rentiva-backend/pkg/enums"
	pkgerrors "github.com/rentiva/rentiva-backend/pkg/errors"
	"github.com/rentiva/rentiva-backend/pkg/logger"
)

type generateLinksRequest struct {
	PaymentChoice string `json:"payment_choice,omitempty" validate:"omitempty,oneof=down_payment full_payment"`
}

// GeneratePaymentLinks triggers a link-generation run for one booking. The
// body is optional; a payment_choice only matters for fresh bookings whose
// policy lets the client pick.
func GeneratePaymentLinks(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookingID, err := validators.UUIDParam(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var choice enums.PaymentChoice
		if r.ContentLength != 0 {
			var req generateLinksRequest
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if req.PaymentChoice != "" {
				choice, err = enums.ParsePaymentChoice(req.PaymentChoice)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
			}
		}

		result, err := svc.GenerateLinks(r.Context(), bookingID, choice)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type recordManualPaymentRequest struct {
	MethodType string  `json:"method_type" validate:"required"`
	Intent     string  `json:"intent" validate:"required"`
	Amount     string  `json:"amount" validate:"required"`
	Currency   string  `json:"currency,omitempty"`
	Note       string  `json:"note,omitempty" validate:"max=500"`
	FineID     *string `json:"fine_id,omitempty" validate:"omitempty,uuid"`
}

type manualPaymentResponse struct {
	PaymentID  uuid.UUID               `json:"payment_id"`
	BookingID  uuid.UUID               `json:"booking_id"`
	MethodType enums.PaymentMethodType `json:"method_type"`
	Intent     enums.PaymentIntent     `json:"intent"`
	Amount     decimal.Decimal         `json:"amount"`
	Currency   enums.Currency          `json:"currency"`
	LinkStatus enums.LinkStatus        `json:"link_status"`
}

// RecordManualPayment registers an out-of-band payment awaiting confirmation.
func RecordManualPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookingID, err := validators.UUIDParam(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req recordManualPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "amount must be a decimal string"))
			return
		}

		input := payments.RecordManualPaymentInput{
			BookingID:  bookingID,
			MethodType: enums.PaymentMethodType(req.MethodType),
			Intent:     enums.PaymentIntent(req.Intent),
			Amount:     amount,
			Currency:   enums.Currency(req.Currency),
			Note:       req.Note,
		}
		if req.FineID != nil {
			fineID, err := uuid.Parse(*req.FineID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "fine_id must be a valid uuid"))
				return
			}
			input.FineID = &fineID
		}

		payment, err := svc.RecordManualPayment(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, manualPaymentResponse{
			PaymentID:  payment.ID,
			BookingID:  payment.BookingID,
			MethodType: payment.MethodType,
			Intent:     payment.Intent,
			Amount:     payment.Amount,
			Currency:   payment.Currency,
			LinkStatus: payment.LinkStatus,
		})
	}
}

// ConfirmManualPayment moves a recorded manual payment to paid and runs the
// confirmation cascade.
func ConfirmManualPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		paymentID, err := validators.UUIDParam(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.ConfirmManualPayment(r.Context(), paymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, manualPaymentResponse{
			PaymentID:  payment.ID,
			BookingID:  payment.BookingID,
			MethodType: payment.MethodType,
			Intent:     payment.Intent,
			Amount:     payment.Amount,
			Currency:   payment.Currency,
			LinkStatus: payment.LinkStatus,
		})
	}
}
