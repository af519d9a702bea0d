package domain

// Customer is a receivables counterparty.
type Customer struct {
	CustomerID string `json:"customerID"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	IsActive   bool   `json:"isActive"`
	AuditFields
}

// Vendor is a payables counterparty.
type Vendor struct {
	VendorID string `json:"vendorID"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	IsActive bool   `json:"isActive"`
	AuditFields
}
