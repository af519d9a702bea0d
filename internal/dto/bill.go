package dto

// CreateBillRequest creates a draft vendor bill.
type CreateBillRequest struct {
	VendorID string            `json:"vendorID" binding:"required"`
	Lines    []LineItemRequest `json:"lines" binding:"required,min=1,dive"`
}

// CreatePurchaseOrderRequest creates a draft purchase order.
type CreatePurchaseOrderRequest struct {
	VendorID string            `json:"vendorID" binding:"required"`
	Lines    []LineItemRequest `json:"lines" binding:"required,min=1,dive"`
}
