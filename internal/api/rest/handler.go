package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/feral-file/chain-estates/internal/adapter"
	"github.com/feral-file/chain-estates/internal/api/middleware"
	"github.com/feral-file/chain-estates/internal/api/rest/dto"
	"github.com/feral-file/chain-estates/internal/ledger"
)

// Handler defines the interface for REST API handlers
type Handler interface {
	// RegisterProperty registers a property owned by the authenticated caller
	// POST /api/v1/properties
	RegisterProperty(c *gin.Context)

	// ListProperty offers a property for sale
	// POST /api/v1/properties/:id/listing
	ListProperty(c *gin.Context)

	// UnlistProperty withdraws a property from sale
	// DELETE /api/v1/properties/:id/listing
	UnlistProperty(c *gin.Context)

	// BuyProperty buys a listed property with the attached payment
	// POST /api/v1/properties/:id/purchase
	BuyProperty(c *gin.Context)

	// GetProperty retrieves a single property
	// GET /api/v1/properties/:id
	GetProperty(c *gin.Context)

	// GetPropertyCount returns the number of registered properties
	// GET /api/v1/properties/count
	GetPropertyCount(c *gin.Context)

	// ListProperties retrieves properties with optional filters
	// GET /api/v1/properties?owner=<address>&for_sale=<bool>&limit=<limit>&offset=<offset>&order=<order>
	ListProperties(c *gin.Context)

	// QueryEvents retrieves ledger events
	// GET /api/v1/events?kind=<kind>&property_id=<id>&address=<address>&since=<ts>&until=<ts>&after=<sequence>&limit=<limit>&offset=<offset>&order=<order>
	QueryEvents(c *gin.Context)

	// VerifyHistory walks the event hash chain
	// GET /api/v1/events/verify
	VerifyHistory(c *gin.Context)

	// GetLedgerInfo identifies the ledger instance and its head
	// GET /api/v1/ledger
	GetLedgerInfo(c *gin.Context)

	// GetAccount returns the balance of an address
	// GET /api/v1/accounts/:address
	GetAccount(c *gin.Context)

	// Deposit credits an account (requires API key)
	// POST /api/v1/accounts/:address/deposits
	Deposit(c *gin.Context)

	// SetFrozen freezes or unfreezes an account (requires API key)
	// PUT /api/v1/accounts/:address/frozen
	SetFrozen(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	ledger ledger.Ledger
	clock  adapter.Clock
}

// NewHandler creates a new REST API handler
func NewHandler(l ledger.Ledger, clock adapter.Clock) Handler {
	return &handler{
		ledger: l,
		clock:  clock,
	}
}

func (h *handler) RegisterProperty(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		respondBadRequest(c, "Missing caller")
		return
	}

	var req dto.RegisterPropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	property, err := h.ledger.Register(c.Request.Context(), caller, ledger.RegisterInput{
		OwnerName:    req.OwnerName,
		Location:     req.Location,
		DocumentHash: req.DocumentHash,
	})
	if err != nil {
		respondLedgerError(c, err, "Failed to register property")
		return
	}

	c.JSON(http.StatusCreated, dto.MapPropertyToDTO(property))
}

func (h *handler) ListProperty(c *gin.Context) {
	caller, id, ok := h.callerAndPropertyID(c)
	if !ok {
		return
	}

	var req dto.ListPropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	price, err := dto.ParseAmount(req.Price, req.PriceWei)
	if err != nil {
		respondLedgerError(c, err, "Invalid price")
		return
	}

	property, err := h.ledger.List(c.Request.Context(), caller, id, price)
	if err != nil {
		respondLedgerError(c, err, "Failed to list property")
		return
	}

	c.JSON(http.StatusOK, dto.MapPropertyToDTO(property))
}

func (h *handler) UnlistProperty(c *gin.Context) {
	caller, id, ok := h.callerAndPropertyID(c)
	if !ok {
		return
	}

	property, err := h.ledger.Unlist(c.Request.Context(), caller, id)
	if err != nil {
		respondLedgerError(c, err, "Failed to unlist property")
		return
	}

	c.JSON(http.StatusOK, dto.MapPropertyToDTO(property))
}

func (h *handler) BuyProperty(c *gin.Context) {
	caller, id, ok := h.callerAndPropertyID(c)
	if !ok {
		return
	}

	var req dto.BuyPropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	payment, err := dto.ParseAmount(req.Payment, req.PaymentWei)
	if err != nil {
		respondLedgerError(c, err, "Invalid payment")
		return
	}

	sale, err := h.ledger.Buy(c.Request.Context(), caller, id, payment)
	if err != nil {
		respondLedgerError(c, err, "Failed to buy property")
		return
	}

	c.JSON(http.StatusOK, dto.MapSaleToDTO(sale))
}

func (h *handler) GetProperty(c *gin.Context) {
	id, ok := propertyID(c)
	if !ok {
		return
	}

	property, err := h.ledger.GetProperty(c.Request.Context(), id)
	if err != nil {
		respondLedgerError(c, err, "Failed to get property")
		return
	}

	c.JSON(http.StatusOK, dto.MapPropertyToDTO(property))
}

func (h *handler) GetPropertyCount(c *gin.Context) {
	count, err := h.ledger.GetPropertyCount(c.Request.Context())
	if err != nil {
		respondLedgerError(c, err, "Failed to count properties")
		return
	}

	c.JSON(http.StatusOK, dto.PropertyCountResponse{Count: count})
}

func (h *handler) ListProperties(c *gin.Context) {
	params, err := ParseListPropertiesQuery(c)
	if err != nil {
		respondBadRequest(c, "Invalid query parameters", err.Error())
		return
	}

	properties, total, err := h.ledger.ListProperties(c.Request.Context(), params.ToLedgerQuery())
	if err != nil {
		respondLedgerError(c, err, "Failed to list properties")
		return
	}

	c.JSON(http.StatusOK, dto.MapPropertiesToDTO(properties, total, params.Offset))
}

func (h *handler) QueryEvents(c *gin.Context) {
	params, err := ParseQueryEventsQuery(c)
	if err != nil {
		respondBadRequest(c, "Invalid query parameters", err.Error())
		return
	}

	events, total, err := h.ledger.QueryEvents(c.Request.Context(), params.ToLedgerQuery())
	if err != nil {
		respondLedgerError(c, err, "Failed to query events")
		return
	}

	c.JSON(http.StatusOK, dto.MapEventsToDTO(events, total, params.Offset))
}

func (h *handler) VerifyHistory(c *gin.Context) {
	result, err := h.ledger.VerifyHistory(c.Request.Context())
	if err != nil {
		respondLedgerError(c, err, "Failed to verify history")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *handler) GetLedgerInfo(c *gin.Context) {
	info, err := h.ledger.Info(c.Request.Context())
	if err != nil {
		respondLedgerError(c, err, "Failed to get ledger info")
		return
	}

	c.JSON(http.StatusOK, info)
}

func (h *handler) GetAccount(c *gin.Context) {
	account, err := h.ledger.GetAccount(c.Request.Context(), c.Param("address"))
	if err != nil {
		respondLedgerError(c, err, "Failed to get account")
		return
	}

	c.JSON(http.StatusOK, dto.MapAccountToDTO(account))
}

func (h *handler) Deposit(c *gin.Context) {
	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	amount, err := dto.ParseAmount(req.Amount, req.AmountWei)
	if err != nil {
		respondLedgerError(c, err, "Invalid amount")
		return
	}

	account, err := h.ledger.Deposit(c.Request.Context(), c.Param("address"), amount)
	if err != nil {
		respondLedgerError(c, err, "Failed to deposit")
		return
	}

	c.JSON(http.StatusOK, dto.MapAccountToDTO(account))
}

func (h *handler) SetFrozen(c *gin.Context) {
	var req dto.SetFrozenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if req.Frozen == nil {
		respondBadRequest(c, "Invalid request body", "frozen is required")
		return
	}

	account, err := h.ledger.SetFrozen(c.Request.Context(), c.Param("address"), *req.Frozen)
	if err != nil {
		respondLedgerError(c, err, "Failed to update account")
		return
	}

	c.JSON(http.StatusOK, dto.MapAccountToDTO(account))
}

func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:    "ok",
		Timestamp: h.clock.Now().UTC(),
	})
}

// callerAndPropertyID reads the authenticated caller and the :id path parameter
func (h *handler) callerAndPropertyID(c *gin.Context) (string, uint64, bool) {
	caller, ok := middleware.Caller(c)
	if !ok {
		respondBadRequest(c, "Missing caller")
		return "", 0, false
	}

	id, ok := propertyID(c)
	if !ok {
		return "", 0, false
	}

	return caller, id, true
}

func propertyID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondBadRequest(c, "Invalid property id", c.Param("id"))
		return 0, false
	}
	return id, true
}
