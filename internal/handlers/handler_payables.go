package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	portssvc "github.com/agrodesk/genfin_backend/internal/core/ports/services"
	"github.com/agrodesk/genfin_backend/internal/dto"
)

// payablesHandler handles HTTP requests for vendors, bills, vendor credits
// and purchase orders.
type payablesHandler struct {
	payablesSvc portssvc.PayablesSvcFacade
}

func newPayablesHandler(payablesSvc portssvc.PayablesSvcFacade) *payablesHandler {
	return &payablesHandler{payablesSvc: payablesSvc}
}

func registerPayablesRoutes(rg *gin.RouterGroup, payablesSvc portssvc.PayablesSvcFacade) {
	h := newPayablesHandler(payablesSvc)

	vendors := rg.Group("/vendors")
	vendors.POST("", h.createVendor)
	vendors.GET("/:vendorID", h.getVendor)
	vendors.GET("/:vendorID/bills", h.listBills)
	vendors.POST("/:vendorID/credits", h.issueCredit)

	bills := rg.Group("/bills")
	bills.POST("", h.createBill)
	bills.GET("/:billID", h.getBill)
	bills.POST("/:billID/send", h.sendBill)
	bills.POST("/:billID/payments", h.applyPayment)
	bills.POST("/:billID/void", h.voidBill)

	rg.POST("/credits/:creditID/apply-bill", h.applyCredit)

	pos := rg.Group("/purchase-orders")
	pos.POST("", h.createPurchaseOrder)
	pos.GET("/:poID", h.getPurchaseOrder)
	pos.POST("/:poID/approve", h.approvePurchaseOrder)
	pos.POST("/:poID/receive", h.receivePurchaseOrder)
	pos.POST("/:poID/convert", h.convertPurchaseOrder)
}

func (h *payablesHandler) createVendor(c *gin.Context) {
	var req dto.CreateVendorRequest
	if !bindJSON(c, &req) {
		return
	}
	vendor, err := h.payablesSvc.CreateVendor(c.Request.Context(), req, getActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, vendor)
}

func (h *payablesHandler) getVendor(c *gin.Context) {
	vendor, err := h.payablesSvc.GetVendorByID(c.Request.Context(), c.Param("vendorID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, vendor)
}

func (h *payablesHandler) listBills(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	bills, err := h.payablesSvc.ListBillsByVendor(c.Request.Context(), c.Param("vendorID"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bills": bills})
}

func (h *payablesHandler) createBill(c *gin.Context) {
	var req dto.CreateBillRequest
	if !bindJSON(c, &req) {
		return
	}
	bill, err := h.payablesSvc.CreateBill(c.Request.Context(), req, getActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bill)
}

func (h *payablesHandler) getBill(c *gin.Context) {
	bill, err := h.payablesSvc.GetBillByID(c.Request.Context(), c.Param("billID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

func (h *payablesHandler) sendBill(c *gin.Context) {
	bill, err := h.payablesSvc.SendBill(c.Request.Context(), c.Param("billID"), getActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

func (h *payablesHandler) applyPayment(c *gin.Context) {
	var req dto.ApplyPaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	bill, err := h.payablesSvc.ApplyPayment(c.Request.Context(), c.Param("billID"), req.Amount, getActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

func (h *payablesHandler) voidBill(c *gin.Context) {
	bill, err := h.payablesSvc.VoidBill(c.Request.Context(), c.Param("billID"), getActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

func (h *payablesHandler) issueCredit(c *gin.Context) {
	var req dto.ApplyPaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	credit, err := h.payablesSvc.IssueCreditMemo(c.Request.Context(), c.Param("vendorID"), req.Amount, getActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, credit)
}

func (h *payablesHandler) applyCredit(c *gin.Context) {
	var req dto.ApplyCreditRequest
	if !bindJSON(c, &req) {
		return
	}
	credit, bill, err := h.payablesSvc.ApplyCredit(c.Request.Context(), c.Param("creditID"), req.TargetID, req.Amount, getActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"credit": credit, "bill": bill})
}

func (h *payablesHandler) createPurchaseOrder(c *gin.Context) {
	var req dto.CreatePurchaseOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	po, err := h.payablesSvc.CreatePurchaseOrder(c.Request.Context(), req, getActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, po)
}

func (h *payablesHandler) getPurchaseOrder(c *gin.Context) {
	po, err := h.payablesSvc.GetPurchaseOrderByID(c.Request.Context(), c.Param("poID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, po)
}

func (h *payablesHandler) approvePurchaseOrder(c *gin.Context) {
	po, err := h.payablesSvc.ApprovePurchaseOrder(c.Request.Context(), c.Param("poID"), getActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, po)
}

func (h *payablesHandler) receivePurchaseOrder(c *gin.Context) {
	po, err := h.payablesSvc.ReceivePurchaseOrder(c.Request.Context(), c.Param("poID"), getActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, po)
}

func (h *payablesHandler) convertPurchaseOrder(c *gin.Context) {
	bill, err := h.payablesSvc.ConvertPOToBill(c.Request.Context(), c.Param("poID"), getActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bill)
}
