package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agrodesk/genfin_backend/internal/apperrors"
	portssvc "github.com/agrodesk/genfin_backend/internal/core/ports/services"
	"github.com/agrodesk/genfin_backend/internal/dto"
)

// ledgerHandler handles HTTP requests for the chart of accounts and the
// journal.
type ledgerHandler struct {
	ledgerSvc   portssvc.LedgerSvcFacade
	sequenceSvc portssvc.SequenceSvcFacade
}

func newLedgerHandler(ledgerSvc portssvc.LedgerSvcFacade, sequenceSvc portssvc.SequenceSvcFacade) *ledgerHandler {
	return &ledgerHandler{ledgerSvc: ledgerSvc, sequenceSvc: sequenceSvc}
}

func registerLedgerRoutes(rg *gin.RouterGroup, ledgerSvc portssvc.LedgerSvcFacade, sequenceSvc portssvc.SequenceSvcFacade) {
	h := newLedgerHandler(ledgerSvc, sequenceSvc)

	accounts := rg.Group("/accounts")
	accounts.POST("", h.createAccount)
	accounts.GET("", h.listAccounts)
	accounts.GET("/:accountID", h.getAccount)
	accounts.GET("/:accountID/balance", h.getBalance)

	journals := rg.Group("/journals")
	journals.POST("", h.postEntry)
	journals.GET("/:journalID", h.getJournal)
	journals.POST("/:journalID/reverse", h.reverseEntry)

	sequences := rg.Group("/sequences")
	sequences.POST("", h.initSequence)
	sequences.GET("/:scopeKey/peek", h.peekSequence)
}

func (h *ledgerHandler) createAccount(c *gin.Context) {
	var req dto.CreateAccountRequest
	if !bindJSON(c, &req) {
		return
	}
	account, err := h.ledgerSvc.CreateAccount(c.Request.Context(), req, getActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

func (h *ledgerHandler) listAccounts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	accounts, err := h.ledgerSvc.ListAccounts(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

func (h *ledgerHandler) getAccount(c *gin.Context) {
	account, err := h.ledgerSvc.GetAccountByID(c.Request.Context(), c.Param("accountID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *ledgerHandler) getBalance(c *gin.Context) {
	accountID := c.Param("accountID")

	var asOf *time.Time
	if raw := c.Query("asOf"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(c, apperrors.ErrValidation)
			return
		}
		asOf = &parsed
	}

	balance, err := h.ledgerSvc.BalanceOf(c.Request.Context(), accountID, asOf)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BalanceResponse{AccountID: accountID, Balance: balance, AsOf: asOf})
}

func (h *ledgerHandler) postEntry(c *gin.Context) {
	var req dto.CreateEntryRequest
	if !bindJSON(c, &req) {
		return
	}
	entry, err := h.ledgerSvc.Post(c.Request.Context(), req.ToDraft(), getActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *ledgerHandler) getJournal(c *gin.Context) {
	entry, err := h.ledgerSvc.GetJournalByID(c.Request.Context(), c.Param("journalID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *ledgerHandler) reverseEntry(c *gin.Context) {
	entry, err := h.ledgerSvc.Reverse(c.Request.Context(), c.Param("journalID"), getActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *ledgerHandler) initSequence(c *gin.Context) {
	var req dto.InitSequenceRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.sequenceSvc.InitScope(c.Request.Context(), req.ScopeKey, req.Next, getActorID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.SequenceResponse{ScopeKey: req.ScopeKey, Value: req.Next})
}

func (h *ledgerHandler) peekSequence(c *gin.Context) {
	scopeKey := c.Param("scopeKey")
	value, err := h.sequenceSvc.Peek(c.Request.Context(), scopeKey)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SequenceResponse{ScopeKey: scopeKey, Value: value})
}
