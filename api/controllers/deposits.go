package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rentiva/rentiva-backend/api/responses"
	"github.com/rentiva/rentiva-backend/api/validators"
	"github.com/rentiva/rentiva-backend/internal/deposits"
	"github.com/rentiva/rentiva-backend/pkg/enums"
	"github.com/rentiva/rentiva-backend/pkg/logger"
)

type depositResponse struct {
	AuthorizationID uuid.UUID               `json:"authorization_id"`
	BookingID       uuid.UUID               `json:"booking_id"`
	MethodType      enums.PaymentMethodType `json:"method_type"`
	Amount          decimal.Decimal         `json:"amount"`
	Status          enums.DepositStatus     `json:"status"`
}

// ReleaseDeposit voids an authorized security deposit hold.
func ReleaseDeposit(svc deposits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorizationID, err := validators.UUIDParam(r, "authorizationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		authorization, err := svc.Release(r.Context(), authorizationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, depositResponse{
			AuthorizationID: authorization.ID,
			BookingID:       authorization.BookingID,
			MethodType:      authorization.MethodType,
			Amount:          authorization.Amount,
			Status:          authorization.Status,
		})
	}
}
