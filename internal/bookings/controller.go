package bookings

import (
	"errors"
	"net/http"

	"ticketly/internal/reservations"
	"ticketly/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Controller struct {
	service   Service
	validator *validator.Validate
}

func NewController(service Service) *Controller {
	return &Controller{
		service:   service,
		validator: validator.New(),
	}
}

// Confirm handles POST /api/v1/bookings/confirm
func (c *Controller) Confirm(ctx *gin.Context) {
	var req ConfirmRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	booking, err := c.service.Confirm(ctx.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, reservations.ErrReservationNotFound):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Reservation not found", nil, err.Error())
		case errors.Is(err, reservations.ErrReservationExpired):
			response.RespondJSON(ctx, "error", http.StatusGone, "Reservation has expired", nil, err.Error())
		case errors.Is(err, ErrSeatsNotHeld):
			response.RespondJSON(ctx, "error", http.StatusConflict, "Seats are no longer held by this reservation", nil, err.Error())
		case errors.Is(err, ErrAmountMismatch):
			response.RespondJSON(ctx, "error", http.StatusUnprocessableEntity, "Payment amount does not match reservation total", nil, err.Error())
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to confirm booking", nil, err.Error())
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Booking confirmed successfully", booking, nil)
}

// GetBooking handles GET /api/v1/bookings/:id
func (c *Controller) GetBooking(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	booking, err := c.service.GetBooking(ctx.Request.Context(), id)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, ErrBookingNotFound) {
			statusCode = http.StatusNotFound
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to get booking", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking retrieved successfully", booking, nil)
}

// GetBookingByRef handles GET /api/v1/bookings/ref/:ref
func (c *Controller) GetBookingByRef(ctx *gin.Context) {
	ref := ctx.Param("ref")
	if ref == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Booking reference is required", nil, "missing booking reference")
		return
	}

	booking, err := c.service.GetBookingByRef(ctx.Request.Context(), ref)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, ErrBookingNotFound) {
			statusCode = http.StatusNotFound
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to get booking", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking retrieved successfully", booking, nil)
}
