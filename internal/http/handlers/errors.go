package handlers

import (
	"errors"
	"net/http"

	"github.com/eventmate/eventmate-server/internal/domain"
	"github.com/eventmate/eventmate-server/internal/enrollment"
	"github.com/eventmate/eventmate-server/internal/http/response"
)

// writeServiceError maps service and flow errors onto the structured
// error responses. Anything unrecognized is a 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, enrollment.ErrValidation):
		response.BadRequest(w, err.Error())
	case errors.Is(err, domain.ErrEventNotFound), errors.Is(err, domain.ErrBookingNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, enrollment.ErrSessionNotFound):
		response.WriteError(w, http.StatusNotFound, err.Error(), response.CodeSessionExpired)
	case errors.Is(err, domain.ErrAlreadyEnrolled):
		response.WriteError(w, http.StatusConflict, err.Error(), response.CodeAlreadyEnrolled)
	case errors.Is(err, domain.ErrEventFull):
		response.WriteError(w, http.StatusConflict, err.Error(), response.CodeEventFull)
	case errors.Is(err, domain.ErrSeatRequired):
		response.WriteError(w, http.StatusBadRequest, err.Error(), response.CodeSeatRequired)
	case errors.Is(err, domain.ErrInvalidSeat):
		response.WriteError(w, http.StatusBadRequest, err.Error(), response.CodeInvalidSeat)
	case errors.Is(err, domain.ErrSeatTaken):
		response.WriteError(w, http.StatusConflict, err.Error(), response.CodeSeatTaken)
	case errors.Is(err, domain.ErrNotPermitted):
		response.Forbidden(w, err.Error())
	case errors.Is(err, enrollment.ErrWrongStep):
		response.WriteError(w, http.StatusConflict, err.Error(), response.CodeWrongStep)
	case errors.Is(err, enrollment.ErrInvalidPromo):
		response.WriteError(w, http.StatusBadRequest, err.Error(), response.CodeInvalidPromo)
	case errors.Is(err, enrollment.ErrCouponNotAllowed):
		response.WriteError(w, http.StatusBadRequest, err.Error(), response.CodeInvalidPromo)
	default:
		response.InternalError(w, "internal error")
	}
}
