package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/festora/internal/helpers"
	"github.com/joshua-takyi/festora/internal/models"
	"github.com/joshua-takyi/festora/internal/services"
)

type buyTicketsRequest struct {
	Quantity int64 `json:"quantity" binding:"required,min=1"`
}

func ListLedgerEvents(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := es.ListEvents(c.Request.Context(), viewerAddress(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(events, len(events)))
	}
}

func ListMyLedgerEvents(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := es.ListMyEvents(c.Request.Context(), viewerAddress(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(events, len(events)))
	}
}

func GetLedgerEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := helpers.ParseEventID(c.Param("id"))
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		event, err := es.GetEvent(c.Request.Context(), id, viewerAddress(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(event, ""))
	}
}

// ListEventTickets narrows to ?owner= when given.
func ListEventTickets(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := helpers.ParseEventID(c.Param("id"))
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		tickets, err := es.ListTickets(c.Request.Context(), id, helpers.StringTrim(c.Query("owner")))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(tickets, len(tickets)))
	}
}

func CreateLedgerEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params models.EventParams
		if err := c.ShouldBindJSON(&params); err != nil {
			badRequest(c, err.Error())
			return
		}
		params.ID = 0
		conf, err := es.CreateEvent(c.Request.Context(), viewerAddress(c), params)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(conf, "Event created successfully"))
	}
}

func UpdateLedgerEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := helpers.ParseEventID(c.Param("id"))
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		var params models.EventParams
		if err := c.ShouldBindJSON(&params); err != nil {
			badRequest(c, err.Error())
			return
		}
		params.ID = id
		conf, err := es.UpdateEvent(c.Request.Context(), viewerAddress(c), params)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(conf, "Event updated successfully"))
	}
}

func DeleteLedgerEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := helpers.ParseEventID(c.Param("id"))
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		conf, err := es.DeleteEvent(c.Request.Context(), viewerAddress(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(conf, "Event deleted successfully"))
	}
}

func PayoutEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := helpers.ParseEventID(c.Param("id"))
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		conf, err := es.Payout(c.Request.Context(), viewerAddress(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(conf, "Payout completed"))
	}
}

func BuyTickets(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := helpers.ParseEventID(c.Param("id"))
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		var req buyTicketsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		conf, err := es.BuyTickets(c.Request.Context(), viewerAddress(c), id, req.Quantity)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(conf, "Tickets purchased"))
	}
}
