package controllers

import (
	"net/http"

	"github.com/rentiva/rentiva-backend/api/responses"
	"github.com/rentiva/rentiva-backend/api/validators"
	"github.com/rentiva/rentiva-backend/internal/audit"
	"github.com/rentiva/rentiva-backend/pkg/logger"
)

// BookingAuditTrail lists the append-only audit entries for one booking in
// chronological order.
func BookingAuditTrail(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookingID, err := validators.UUIDParam(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.ListByBookingID(r.Context(), bookingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}
