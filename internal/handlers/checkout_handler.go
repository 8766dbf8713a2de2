package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/festora/internal/helpers"
	"github.com/joshua-takyi/festora/internal/models"
	"github.com/joshua-takyi/festora/internal/services"
	"github.com/joshua-takyi/festora/internal/units"
)

// Amount accepts a JSON number or a numeric string.
type createOrderRequest struct {
	Amount json.Number `json:"amount" binding:"required"`
}

type createPaidEventRequest struct {
	OrderID   string                 `json:"orderId" binding:"required"`
	PaymentID string                 `json:"paymentId" binding:"required"`
	EventData map[string]interface{} `json:"eventData" binding:"required"`
}

func CreatePaymentOrder(cs *services.CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		amount, err := units.ParseAmount(req.Amount.String())
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		order, err := cs.CreateOrder(c.Request.Context(), amount)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// CreatePaidEvent persists the event once its creation fee is verified.
func CreatePaidEvent(cs *services.CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createPaidEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		res, err := cs.ConfirmAndPersist(c.Request.Context(), services.ConfirmInput{
			OrderID:   req.OrderID,
			PaymentID: req.PaymentID,
			Owner:     viewerAddress(c),
			EventData: req.EventData,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		status := http.StatusCreated
		if !res.Created {
			status = http.StatusOK
		}
		c.JSON(status, gin.H{
			"success": true,
			"eventId": res.ID,
			"created": res.Created,
			"state":   res.State,
		})
	}
}

// ListPaidEvents lists every document when ?owner= is absent.
func ListPaidEvents(cs *services.CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := models.NormalizeAddress(c.Query("owner"))
		events, err := cs.ListEvents(c.Request.Context(), owner)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(events, len(events)))
	}
}

func DeletePaidEvent(cs *services.CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := helpers.StringTrim(c.Param("id"))
		if err := cs.DeleteEvent(c.Request.Context(), id, viewerAddress(c)); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"id": id}, "Event deleted successfully"))
	}
}
