package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/agrodesk/genfin_backend/internal/core/ports/services"
	"github.com/agrodesk/genfin_backend/internal/dto"
)

// bankingHandler handles HTTP requests for bank accounts, checks, transfers,
// reconciliations and ACH batches.
type bankingHandler struct {
	bankingSvc portssvc.BankingSvcFacade
}

func newBankingHandler(bankingSvc portssvc.BankingSvcFacade) *bankingHandler {
	return &bankingHandler{bankingSvc: bankingSvc}
}

func registerBankingRoutes(rg *gin.RouterGroup, bankingSvc portssvc.BankingSvcFacade) {
	h := newBankingHandler(bankingSvc)

	bankAccounts := rg.Group("/bank-accounts")
	bankAccounts.POST("", h.createBankAccount)
	bankAccounts.GET("/:bankAccountID", h.getBankAccount)

	checks := rg.Group("/checks")
	checks.POST("", h.writeCheck)
	checks.GET("/:checkID", h.getCheck)
	checks.POST("/:checkID/print", h.printCheck)
	checks.POST("/:checkID/clear", h.clearCheck)
	checks.POST("/:checkID/void", h.voidCheck)

	rg.POST("/transfers", h.transfer)

	reconciliations := rg.Group("/reconciliations")
	reconciliations.POST("", h.startReconciliation)
	reconciliations.GET("/:reconciliationID", h.getReconciliation)
	reconciliations.POST("/:reconciliationID/cleared", h.markCleared)
	reconciliations.POST("/:reconciliationID/complete", h.completeReconciliation)

	rg.POST("/ach-batches", h.createAchBatch)
}

func (h *bankingHandler) createBankAccount(c *gin.Context) {
	var req dto.CreateBankAccountRequest
	if !bindJSON(c, &req) {
		return
	}
	account, err := h.bankingSvc.CreateBankAccount(c.Request.Context(), req, getActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

func (h *bankingHandler) getBankAccount(c *gin.Context) {
	account, err := h.bankingSvc.GetBankAccountByID(c.Request.Context(), c.Param("bankAccountID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *bankingHandler) writeCheck(c *gin.Context) {
	var req dto.WriteCheckRequest
	if !bindJSON(c, &req) {
		return
	}
	check, err := h.bankingSvc.WriteCheck(c.Request.Context(), req, getActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, check)
}

func (h *bankingHandler) getCheck(c *gin.Context) {
	check, err := h.bankingSvc.GetCheckByID(c.Request.Context(), c.Param("checkID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, check)
}

func (h *bankingHandler) printCheck(c *gin.Context) {
	check, err := h.bankingSvc.PrintCheck(c.Request.Context(), c.Param("checkID"), getActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, check)
}

func (h *bankingHandler) clearCheck(c *gin.Context) {
	check, err := h.bankingSvc.ClearCheck(c.Request.Context(), c.Param("checkID"), getActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, check)
}

func (h *bankingHandler) voidCheck(c *gin.Context) {
	check, err := h.bankingSvc.VoidCheck(c.Request.Context(), c.Param("checkID"), getActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, check)
}

func (h *bankingHandler) transfer(c *gin.Context) {
	var req dto.TransferRequest
	if !bindJSON(c, &req) {
		return
	}
	entry, err := h.bankingSvc.Transfer(c.Request.Context(), req, getActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *bankingHandler) startReconciliation(c *gin.Context) {
	var req dto.StartReconciliationRequest
	if !bindJSON(c, &req) {
		return
	}
	rec, err := h.bankingSvc.StartReconciliation(c.Request.Context(), req.BankAccountID, req.StatementBalance, getActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *bankingHandler) getReconciliation(c *gin.Context) {
	rec, err := h.bankingSvc.GetReconciliationByID(c.Request.Context(), c.Param("reconciliationID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *bankingHandler) markCleared(c *gin.Context) {
	var req dto.MarkClearedRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.bankingSvc.MarkCleared(c.Request.Context(), c.Param("reconciliationID"), req.PostingIDs, getActorID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": len(req.PostingIDs)})
}

func (h *bankingHandler) completeReconciliation(c *gin.Context) {
	rec, err := h.bankingSvc.CompleteReconciliation(c.Request.Context(), c.Param("reconciliationID"), getActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *bankingHandler) createAchBatch(c *gin.Context) {
	var req dto.CreateAchBatchRequest
	if !bindJSON(c, &req) {
		return
	}
	batch, err := h.bankingSvc.CreateAchBatch(c.Request.Context(), req, getActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, batch)
}
