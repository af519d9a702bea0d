package dto

// InitSequenceRequest creates a numbering scope so the first issued value is
// Next.
type InitSequenceRequest struct {
	ScopeKey string `json:"scopeKey" binding:"required"`
	Next     int64  `json:"next" binding:"required,min=1"`
}

// SequenceResponse reports allocator state for a scope.
type SequenceResponse struct {
	ScopeKey string `json:"scopeKey"`
	Value    int64  `json:"value"`
}
