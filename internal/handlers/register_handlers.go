package handlers

import (
	"github.com/gin-gonic/gin"

	portssvc "github.com/agrodesk/genfin_backend/internal/core/ports/services"
)

// RegisterRoutes sets up all application routes, injecting dependencies
// through the service container.
func RegisterRoutes(r *gin.Engine, services *portssvc.ServiceContainer) {
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	v1 := r.Group("/genfin/v1")
	registerLedgerRoutes(v1, services.Ledger, services.Sequence)
	registerReceivablesRoutes(v1, services.Receivables)
	registerPayablesRoutes(v1, services.Payables)
	registerBankingRoutes(v1, services.Banking)
}
