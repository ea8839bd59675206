package reservations

import (
	"errors"
	"net/http"

	"ticketly/internal/events"
	"ticketly/internal/seats"
	"ticketly/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// Reserve handles POST /api/v1/reservations
func (c *Controller) Reserve(ctx *gin.Context) {
	var req ReserveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	hold, err := c.service.Reserve(ctx.Request.Context(), req)
	if err != nil {
		var unavailable *seats.SeatUnavailableError
		switch {
		case errors.As(err, &unavailable):
			response.RespondJSON(ctx, "error", http.StatusConflict, "One or more seats are unavailable", nil, gin.H{
				"conflicting_seats": unavailable.SeatIDs,
			})
		case errors.Is(err, ErrInvalidSeatCount):
			response.RespondJSON(ctx, "error", http.StatusUnprocessableEntity, "Invalid seat selection", nil, err.Error())
		case errors.Is(err, events.ErrEventNotFound):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Event not found", nil, err.Error())
		case errors.Is(err, seats.ErrSeatNotFound):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "One or more seats not found", nil, err.Error())
		default:
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to reserve seats", nil, err.Error())
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Seats reserved successfully", hold, nil)
}

// Verify handles GET /api/v1/reservations/:token/verify
func (c *Controller) Verify(ctx *gin.Context) {
	token := ctx.Param("token")
	if token == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Reservation token is required", nil, "missing token")
		return
	}

	result, err := c.service.Verify(ctx.Request.Context(), token)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to verify reservation", nil, err.Error())
		return
	}

	if !result.Valid {
		response.RespondJSON(ctx, "error", http.StatusGone, "Reservation is no longer valid", result, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Reservation is valid", result, nil)
}

// Cancel handles DELETE /api/v1/reservations/:token
func (c *Controller) Cancel(ctx *gin.Context) {
	token := ctx.Param("token")
	if token == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Reservation token is required", nil, "missing token")
		return
	}

	if err := c.service.Cancel(ctx.Request.Context(), token); err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to cancel reservation", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Reservation cancelled successfully", nil, nil)
}
