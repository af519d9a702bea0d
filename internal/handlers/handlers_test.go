package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrodesk/genfin_backend/internal/coordinator"
	"github.com/agrodesk/genfin_backend/internal/core/domain"
	portssvc "github.com/agrodesk/genfin_backend/internal/core/ports/services"
	"github.com/agrodesk/genfin_backend/internal/core/services"
	"github.com/agrodesk/genfin_backend/internal/dto"
	"github.com/agrodesk/genfin_backend/internal/handlers"
	"github.com/agrodesk/genfin_backend/internal/repositories/memory"
)

// newTestRouter builds the full route tree over the in-memory store.
func newTestRouter(t *testing.T) (*gin.Engine, portssvc.LedgerSvcFacade) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	coord := coordinator.NewLockCoordinator(5 * time.Second)
	ledger := services.NewLedgerService(store, store, coord, nil)
	sequence := services.NewSequenceService(store)

	container := &portssvc.ServiceContainer{
		Ledger:   ledger,
		Sequence: sequence,
		Receivables: services.NewReceivablesService(
			store, store, store, ledger, sequence, coord, nil,
			services.ReceivablesConfig{},
		),
		Payables: services.NewPayablesService(
			store, store, store, store, ledger, sequence, coord, nil,
			services.PayablesConfig{},
		),
		Banking: services.NewBankingService(
			store, store, store, store, store, ledger, sequence, coord, nil,
			services.BankingConfig{},
		),
	}

	r := gin.New()
	handlers.RegisterRoutes(r, container)
	return r, ledger
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-ID", "http-tester")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAccountEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/genfin/v1/accounts", gin.H{
		"name":        "Cash",
		"accountType": "ASSET",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeBody(t, w)
	accountID, ok := created["accountID"].(string)
	require.True(t, ok)
	assert.Equal(t, "http-tester", created["createdBy"])

	w = doJSON(t, r, http.MethodGet, "/genfin/v1/accounts/"+accountID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/genfin/v1/accounts/"+accountID+"/balance", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Unknown accounts are a business rejection, not a bare 404.
	w = doJSON(t, r, http.MethodGet, "/genfin/v1/accounts/missing", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "UnknownAccount", decodeBody(t, w)["kind"])

	// Missing required fields fail binding.
	w = doJSON(t, r, http.MethodPost, "/genfin/v1/accounts", gin.H{"name": "No Type"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJournalEndpoints(t *testing.T) {
	r, ledger := newTestRouter(t)

	cash := mustCreateAccount(t, ledger, "Cash", domain.Asset)
	income := mustCreateAccount(t, ledger, "Revenue", domain.Income)

	postBody := gin.H{
		"date":        time.Now().UTC().Format(time.RFC3339),
		"description": "Cash sale",
		"postings": []gin.H{
			{"accountID": cash, "amount": "125.50", "side": "DEBIT"},
			{"accountID": income, "amount": "125.50", "side": "CREDIT"},
		},
	}
	w := doJSON(t, r, http.MethodPost, "/genfin/v1/journals", postBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	journalID := decodeBody(t, w)["journalID"].(string)

	w = doJSON(t, r, http.MethodGet, "/genfin/v1/journals/"+journalID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Unbalanced entries are rejected with a stable kind.
	unbalanced := gin.H{
		"date":        time.Now().UTC().Format(time.RFC3339),
		"description": "Lopsided",
		"postings": []gin.H{
			{"accountID": cash, "amount": "100", "side": "DEBIT"},
			{"accountID": income, "amount": "90", "side": "CREDIT"},
		},
	}
	w = doJSON(t, r, http.MethodPost, "/genfin/v1/journals", unbalanced)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "UnbalancedEntry", decodeBody(t, w)["kind"])

	w = doJSON(t, r, http.MethodPost, "/genfin/v1/journals/"+journalID+"/reverse", nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPost, "/genfin/v1/journals/"+journalID+"/reverse", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "AlreadyReversed", decodeBody(t, w)["kind"])
}

func TestSequenceEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/genfin/v1/sequences", gin.H{
		"scopeKey": "testseq:http",
		"next":     100,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/genfin/v1/sequences/testseq:http/peek", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(100), decodeBody(t, w)["value"])

	w = doJSON(t, r, http.MethodPost, "/genfin/v1/sequences", gin.H{
		"scopeKey": "testseq:http",
		"next":     1,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodGet, "/genfin/v1/sequences/testseq:missing/peek", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "ScopeNotFound", decodeBody(t, w)["kind"])
}

func TestInvoiceEndpointsNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/genfin/v1/invoices/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NotFound", decodeBody(t, w)["kind"])
}

func mustCreateAccount(t *testing.T, ledger portssvc.LedgerSvcFacade, name string, accountType domain.AccountType) string {
	t.Helper()
	account, err := ledger.CreateAccount(context.Background(), dto.CreateAccountRequest{
		Name:        name,
		AccountType: accountType,
	}, "http-tester")
	require.NoError(t, err)
	return account.AccountID
}
