package ledger

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/stockroom-app/stockroom/internal/observability"
	"github.com/stockroom-app/stockroom/internal/platform/httpx"
	"github.com/stockroom-app/stockroom/internal/shared"
)

// Handler wires HTTP endpoints for the ledger module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	metrics  *observability.Metrics
}

// NewHandler constructs the ledger handler.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		metrics:  metrics,
	}
}

// MountRoutes registers team-scoped ledger routes. Role gating happens in the
// router; creation routes are mounted behind the editor gate.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/transactions", h.handleList)
	r.Get("/transactions/{transactionID}", h.handleShow)
	r.Get("/items/{itemID}/stock", h.handleItemStock)
	r.Get("/items/{itemID}/stock/locations/{locationID}", h.handleLocationStock)
}

// MountWriteRoutes registers the entry-creation route.
func (h *Handler) MountWriteRoutes(r chi.Router) {
	r.Post("/transactions", h.handleCreate)
}

// HandleTransactionTypes serves the five policy views. Not team-scoped: the
// policy table is process-wide and fixed.
func (h *Handler) HandleTransactionTypes(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"transaction_types": Policies()})
}

type createTransactionRequest struct {
	ItemID                int64           `json:"item_id" validate:"required"`
	TransactionType       string          `json:"transaction_type" validate:"required"`
	Quantity              json.RawMessage `json:"quantity"`
	SourceLocationID      *int64          `json:"source_location_id"`
	DestinationLocationID *int64          `json:"destination_location_id"`
	Notes                 string          `json:"notes"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	teamID, ok := teamIDParam(w, r)
	if !ok {
		return
	}
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	var req createTransactionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	quantity, quantitySet, quantityInvalid := parseQuantity(req.Quantity)

	entry, err := h.service.CreateEntry(r.Context(), CreateEntryInput{
		TeamID:                teamID,
		ItemID:                req.ItemID,
		UserID:                actor.UserID,
		Type:                  TransactionType(req.TransactionType),
		Quantity:              quantity,
		QuantitySet:           quantitySet,
		QuantityInvalid:       quantityInvalid,
		SourceLocationID:      req.SourceLocationID,
		DestinationLocationID: req.DestinationLocationID,
		Notes:                 req.Notes,
		IdempotencyKey:        r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		h.respondCreateError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordLedgerEntry(string(entry.Type))
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) respondCreateError(w http.ResponseWriter, err error) {
	var violations ValidationErrors
	switch {
	case errors.As(err, &violations):
		fields := make([]httpx.FieldError, 0, len(violations))
		for _, v := range violations {
			fields = append(fields, httpx.FieldError{Field: v.Field, Code: v.Code, Message: v.Message})
		}
		httpx.UnprocessableEntity(w, fields)
	case errors.Is(err, ErrItemNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "item not found")
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error("create ledger entry", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	teamID, ok := teamIDParam(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := ListFilter{TeamID: teamID}
	if raw := q.Get("item_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid item_id")
			return
		}
		filter.ItemID = id
	}
	filter.Type = TransactionType(q.Get("transaction_type"))

	page, perPage := 1, 50
	if raw := q.Get("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			page = v
		}
	}
	if raw := q.Get("per_page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 200 {
			perPage = v
		}
	}
	filter.Limit = perPage
	filter.Offset = (page - 1) * perPage

	entries, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		var violations ValidationErrors
		if errors.As(err, &violations) {
			fields := make([]httpx.FieldError, 0, len(violations))
			for _, v := range violations {
				fields = append(fields, httpx.FieldError{Field: v.Field, Code: v.Code, Message: v.Message})
			}
			httpx.UnprocessableEntity(w, fields)
			return
		}
		h.logger.Error("list ledger entries", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"transactions": entries,
		"pagination":   shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) handleShow(w http.ResponseWriter, r *http.Request) {
	teamID, ok := teamIDParam(w, r)
	if !ok {
		return
	}
	entryID, err := strconv.ParseInt(chi.URLParam(r, "transactionID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid transaction id")
		return
	}
	entry, err := h.service.Get(r.Context(), teamID, entryID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("get ledger entry", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) handleItemStock(w http.ResponseWriter, r *http.Request) {
	teamID, ok := teamIDParam(w, r)
	if !ok {
		return
	}
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid item id")
		return
	}
	stock, err := h.service.CurrentStock(r.Context(), teamID, itemID)
	if err != nil {
		h.respondStockError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"item_id": itemID, "current_stock": stock})
}

func (h *Handler) handleLocationStock(w http.ResponseWriter, r *http.Request) {
	teamID, ok := teamIDParam(w, r)
	if !ok {
		return
	}
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid item id")
		return
	}
	locationID, err := strconv.ParseInt(chi.URLParam(r, "locationID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid location id")
		return
	}
	stock, err := h.service.LocationStock(r.Context(), teamID, itemID, locationID)
	if err != nil {
		h.respondStockError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"item_id":       itemID,
		"location_id":   locationID,
		"current_stock": stock,
	})
}

func (h *Handler) respondStockError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrItemNotFound) {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	h.logger.Error("compute stock", slog.Any("error", err))
	httpx.RespondError(w, err)
}

// parseQuantity distinguishes a missing quantity from a malformed one. A JSON
// number or a numeric string are both accepted. A malformed value is not a
// terminal condition here: validation still runs so the response carries the
// full set of violations.
func parseQuantity(raw json.RawMessage) (value decimal.Decimal, set, invalid bool) {
	trimmed := strings.TrimSpace(string(raw))
	if len(trimmed) == 0 || trimmed == "null" {
		return decimal.Zero, false, false
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return decimal.Zero, false, true
	}
	return value, true, false
}

func teamIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	teamID, err := strconv.ParseInt(chi.URLParam(r, "teamID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid team id")
		return 0, false
	}
	return teamID, true
}
