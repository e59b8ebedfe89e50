package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/larsjuhl/kantine-kiosk/models"
	"github.com/larsjuhl/kantine-kiosk/services"
	"github.com/larsjuhl/kantine-kiosk/utils"
)

// KioskController exposes one station to the kiosk UI.
type KioskController struct {
	Station *services.Station
}

func NewKioskController(station *services.Station) *KioskController {
	return &KioskController{Station: station}
}

// GetCatalog -> current product/option snapshot, windows in local time.
func (kc *KioskController) GetCatalog(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Catalog snapshot", kc.Station.Catalog())
}

// GetAvailability -> product id to orderable flag.
func (kc *KioskController) GetAvailability(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Product availability", kc.Station.Availability())
}

// GetCart -> cart contents with derived price and validity.
func (kc *KioskController) GetCart(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Cart state", kc.Station.CartState())
}

// ChangeCart -> apply one delta to the cart.
func (kc *KioskController) ChangeCart(c *gin.Context) {
	type ReqBody struct {
		ID   string `json:"id" binding:"required"`
		Kind string `json:"kind" binding:"required"`
		// Pointer so an explicit zero delta still binds.
		Delta *int `json:"delta" binding:"required"`
	}

	var body ReqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	view, err := kc.Station.ChangeCart(body.ID, models.ItemKind(body.Kind), *body.Delta)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cart updated", view)
}

// SubmitOrder -> submit the cart with the chosen payment method.
func (kc *KioskController) SubmitOrder(c *gin.Context) {
	type ReqBody struct {
		PaymentMethod string `json:"paymentMethod" binding:"required"`
	}

	var body ReqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	method := models.PaymentMethod(body.PaymentMethod)
	if !method.Valid() {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("unknown payment method %q", body.PaymentMethod))
		return
	}

	order, err := kc.Station.Submit(c.Request.Context(), method)
	switch {
	case errors.Is(err, services.ErrSubmissionInFlight):
		utils.RespondError(c, http.StatusConflict, err)
		return
	case errors.Is(err, services.ErrEmptyCart):
		utils.RespondError(c, http.StatusUnprocessableEntity, err)
		return
	case err != nil:
		utils.RespondError(c, http.StatusBadGateway, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order submitted", order)
}

// GetOrderStatus -> current submission state and order, if any.
func (kc *KioskController) GetOrderStatus(c *gin.Context) {
	status, order := kc.Station.OrderStatus()
	utils.RespondJSON(c, http.StatusOK, "Order status", gin.H{
		"orderStatus": status,
		"order":       order,
	})
}

// ResetStation -> clear cart and state machine for the next customer.
func (kc *KioskController) ResetStation(c *gin.Context) {
	selectContext := kc.Station.Reset()
	utils.RespondJSON(c, http.StatusOK, "Station reset", gin.H{
		"selectContext": selectContext,
	})
}

// GetSession -> session validity and pending redirect signal.
func (kc *KioskController) GetSession(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Session state", kc.Station.Session())
}

// GetJournal -> recent rows from the local order journal.
func (kc *KioskController) GetJournal(c *gin.Context) {
	journal := kc.Station.Journal()
	if journal == nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("order journal is disabled"))
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			utils.RespondError(c, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	records, err := journal.Recent(limit)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Journal records", records)
}
