package ledger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/stockroom-app/stockroom/internal/platform/httpx"
	"github.com/stockroom-app/stockroom/internal/shared"
)

func newTestRouter(t *testing.T, repo *memoryRepo, withActor bool) http.Handler {
	t.Helper()
	svc, _ := newTestService(repo)
	handler := NewHandler(slog.New(slog.DiscardHandler), svc, nil)

	r := chi.NewRouter()
	if withActor {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				ctx := shared.ContextWithActor(req.Context(), shared.Actor{UserID: 7})
				next.ServeHTTP(w, req.WithContext(ctx))
			})
		})
	}
	r.Get("/transaction-types", handler.HandleTransactionTypes)
	r.Route("/teams/{teamID}", func(r chi.Router) {
		handler.MountRoutes(r)
		handler.MountWriteRoutes(r)
	})
	return r
}

func postTransaction(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/teams/1/transactions", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleTransactionTypes(t *testing.T) {
	router := newTestRouter(t, newMemoryRepo(), true)

	req := httptest.NewRequest(http.MethodGet, "/transaction-types", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		TransactionTypes []PolicyView `json:"transaction_types"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.TransactionTypes, 5)
	require.Equal(t, "stock_in", body.TransactionTypes[0].Type)
}

func TestHandleCreateRequiresActor(t *testing.T) {
	repo := newMemoryRepo()
	repo.addItem(1, 1, "0")
	router := newTestRouter(t, repo, false)

	rec := postTransaction(t, router, `{"item_id":1,"transaction_type":"stock_in","quantity":5,"destination_location_id":1}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleCreateSuccess(t *testing.T) {
	repo := newMemoryRepo()
	repo.addItem(1, 1, "0")
	router := newTestRouter(t, repo, true)

	rec := postTransaction(t, router, `{"item_id":1,"transaction_type":"stock_in","quantity":"5.5","destination_location_id":1,"notes":"restock"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var entry Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	require.NotZero(t, entry.ID)
	require.Equal(t, TransactionTypeStockIn, entry.Type)
	require.Equal(t, int64(7), entry.UserID)
	require.Equal(t, "5.5", entry.Quantity.String())
}

func TestHandleCreateMalformedQuantity(t *testing.T) {
	repo := newMemoryRepo()
	repo.addItem(1, 1, "0")
	router := newTestRouter(t, repo, true)

	rec := postTransaction(t, router, `{"item_id":1,"transaction_type":"stock_in","quantity":"lots","destination_location_id":1}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var problem httpx.ValidationProblem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Len(t, problem.Errors, 1)
	require.Equal(t, CodeInvalidNumber, problem.Errors[0].Code)
	require.Equal(t, "quantity", problem.Errors[0].Field)
}

func TestHandleCreateMalformedQuantityKeepsOtherViolations(t *testing.T) {
	repo := newMemoryRepo()
	repo.addItem(1, 1, "0")
	router := newTestRouter(t, repo, true)

	// A quantity that fails to parse must not suppress the location checks
	// on the same request.
	rec := postTransaction(t, router, `{"item_id":1,"transaction_type":"stock_out","quantity":"abc","destination_location_id":9}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var problem httpx.ValidationProblem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Len(t, problem.Errors, 3)
	codes := make(map[string]int)
	for _, fieldErr := range problem.Errors {
		codes[fieldErr.Code]++
	}
	require.Equal(t, 1, codes[CodeInvalidNumber])
	require.Equal(t, 2, codes[CodeLocationRequirement])
}

func TestHandleCreateMissingQuantityIsMissingField(t *testing.T) {
	repo := newMemoryRepo()
	repo.addItem(1, 1, "0")
	router := newTestRouter(t, repo, true)

	rec := postTransaction(t, router, `{"item_id":1,"transaction_type":"stock_in","destination_location_id":1}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var problem httpx.ValidationProblem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Len(t, problem.Errors, 1)
	require.Equal(t, CodeMissingField, problem.Errors[0].Code)
}

func TestHandleCreateReturnsAllViolations(t *testing.T) {
	repo := newMemoryRepo()
	repo.addItem(1, 1, "0")
	router := newTestRouter(t, repo, true)

	// Wrong sign and wrong locations for a move, reported together.
	rec := postTransaction(t, router, `{"item_id":1,"transaction_type":"move","quantity":-2}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var problem httpx.ValidationProblem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Len(t, problem.Errors, 3)
	codes := make(map[string]int)
	for _, fieldErr := range problem.Errors {
		codes[fieldErr.Code]++
	}
	require.Equal(t, 2, codes[CodeLocationRequirement])
	require.Equal(t, 1, codes[CodeQuantitySign])
}

func TestHandleCreateUnknownItem(t *testing.T) {
	router := newTestRouter(t, newMemoryRepo(), true)

	rec := postTransaction(t, router, `{"item_id":99,"transaction_type":"stock_in","quantity":5,"destination_location_id":1}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleItemStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.addItem(1, 1, "10")
	router := newTestRouter(t, repo, true)

	rec := postTransaction(t, router, `{"item_id":1,"transaction_type":"stock_in","quantity":5,"destination_location_id":1}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/teams/1/items/1/stock", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		ItemID       int64  `json:"item_id"`
		CurrentStock string `json:"current_stock"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, int64(1), body.ItemID)
	require.Equal(t, "15", body.CurrentStock)
}

func TestHandleListPagination(t *testing.T) {
	repo := newMemoryRepo()
	repo.addItem(1, 1, "0")
	router := newTestRouter(t, repo, true)

	for i := 0; i < 3; i++ {
		rec := postTransaction(t, router, `{"item_id":1,"transaction_type":"stock_in","quantity":1,"destination_location_id":1}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/teams/1/transactions?per_page=2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Transactions []Entry           `json:"transactions"`
		Pagination   shared.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Transactions, 2)
	require.Equal(t, 3, body.Pagination.Total)
}
