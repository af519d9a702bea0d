package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	portssvc "github.com/agrodesk/genfin_backend/internal/core/ports/services"
	"github.com/agrodesk/genfin_backend/internal/dto"
)

// receivablesHandler handles HTTP requests for customers, invoices and
// customer credits.
type receivablesHandler struct {
	receivablesSvc portssvc.ReceivablesSvcFacade
}

func newReceivablesHandler(receivablesSvc portssvc.ReceivablesSvcFacade) *receivablesHandler {
	return &receivablesHandler{receivablesSvc: receivablesSvc}
}

func registerReceivablesRoutes(rg *gin.RouterGroup, receivablesSvc portssvc.ReceivablesSvcFacade) {
	h := newReceivablesHandler(receivablesSvc)

	customers := rg.Group("/customers")
	customers.POST("", h.createCustomer)
	customers.GET("/:customerID", h.getCustomer)
	customers.GET("/:customerID/invoices", h.listInvoices)
	customers.POST("/:customerID/credits", h.issueCredit)

	invoices := rg.Group("/invoices")
	invoices.POST("", h.createInvoice)
	invoices.GET("/:invoiceID", h.getInvoice)
	invoices.POST("/:invoiceID/send", h.sendInvoice)
	invoices.POST("/:invoiceID/payments", h.applyPayment)
	invoices.POST("/:invoiceID/void", h.voidInvoice)

	rg.POST("/credits/:creditID/apply-invoice", h.applyCredit)
}

func (h *receivablesHandler) createCustomer(c *gin.Context) {
	var req dto.CreateCustomerRequest
	if !bindJSON(c, &req) {
		return
	}
	customer, err := h.receivablesSvc.CreateCustomer(c.Request.Context(), req, getActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (h *receivablesHandler) getCustomer(c *gin.Context) {
	customer, err := h.receivablesSvc.GetCustomerByID(c.Request.Context(), c.Param("customerID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *receivablesHandler) listInvoices(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	invoices, err := h.receivablesSvc.ListInvoicesByCustomer(c.Request.Context(), c.Param("customerID"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

func (h *receivablesHandler) createInvoice(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}
	invoice, err := h.receivablesSvc.CreateInvoice(c.Request.Context(), req, getActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, invoice)
}

func (h *receivablesHandler) getInvoice(c *gin.Context) {
	invoice, err := h.receivablesSvc.GetInvoiceByID(c.Request.Context(), c.Param("invoiceID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *receivablesHandler) sendInvoice(c *gin.Context) {
	invoice, err := h.receivablesSvc.SendInvoice(c.Request.Context(), c.Param("invoiceID"), getActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *receivablesHandler) applyPayment(c *gin.Context) {
	var req dto.ApplyPaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	invoice, err := h.receivablesSvc.ApplyPayment(c.Request.Context(), c.Param("invoiceID"), req.Amount, getActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *receivablesHandler) voidInvoice(c *gin.Context) {
	invoice, err := h.receivablesSvc.VoidInvoice(c.Request.Context(), c.Param("invoiceID"), getActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *receivablesHandler) issueCredit(c *gin.Context) {
	var req dto.ApplyPaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	credit, err := h.receivablesSvc.IssueCreditMemo(c.Request.Context(), c.Param("customerID"), req.Amount, getActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, credit)
}

func (h *receivablesHandler) applyCredit(c *gin.Context) {
	var req dto.ApplyCreditRequest
	if !bindJSON(c, &req) {
		return
	}
	credit, invoice, err := h.receivablesSvc.ApplyCredit(c.Request.Context(), c.Param("creditID"), req.TargetID, req.Amount, getActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"credit": credit, "invoice": invoice})
}
