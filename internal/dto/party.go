package dto

// CreateCustomerRequest registers a receivables counterparty.
type CreateCustomerRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"omitempty,email"`
}

// CreateVendorRequest registers a payables counterparty.
type CreateVendorRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"omitempty,email"`
}
