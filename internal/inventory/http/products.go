package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/stocktake/internal/inventory/service"
	"github.com/aussiebroadwan/stocktake/pkg/httpx"
)

type ProductsHandler struct {
	Products *service.ProductService
	Lookup   *service.LookupClient
}

func (h *ProductsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	pendingOnly := r.URL.Query().Get("pending") == "1"

	products, err := h.Products.List(r.Context(), httpx.UserID(r.Context()), pendingOnly)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toProductResponses(products))
}

type createProductRequest struct {
	EAN     string `json:"ean"`
	Name    string `json:"name"`
	Color   string `json:"color"`
	Voltage string `json:"voltage"`
	Model   string `json:"model"`

	// Pointer so an explicit 0 is distinguishable from an omitted field.
	Quantity *int64   `json:"quantity"`
	Price    *float64 `json:"price"`
}

func (h *ProductsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	quantity := int64(1)
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	p, err := h.Products.Create(r.Context(), httpx.UserID(r.Context()), service.ProductInput{
		EAN:      req.EAN,
		Name:     req.Name,
		Color:    req.Color,
		Voltage:  req.Voltage,
		Model:    req.Model,
		Quantity: quantity,
		Price:    req.Price,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toProductResponse(p))
}

func (h *ProductsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid product id")
		return
	}

	ctx := r.Context()
	if err := h.Products.Delete(ctx, id, httpx.UserID(ctx), httpx.IsAdmin(ctx)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sendListRequest struct {
	ResponsibleID int64  `json:"responsible_id"`
	PIN           string `json:"pin"`
}

type sendListResponse struct {
	Sent int64 `json:"sent"`
}

func (h *ProductsHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req sendListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	sent, err := h.Products.SendList(r.Context(), httpx.UserID(r.Context()), req.ResponsibleID, req.PIN)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sendListResponse{Sent: sent})
}

type validateRequest struct {
	Notes string `json:"notes"`
}

func (h *ProductsHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid product id")
		return
	}

	var req validateRequest
	if r.Body != nil {
		// Body is optional; notes default to empty.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	p, err := h.Products.Validate(r.Context(), id, httpx.UserID(r.Context()), req.Notes)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *ProductsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Admins see system-wide numbers, everyone else their own.
	var userID *int64
	if !httpx.IsAdmin(ctx) {
		id := httpx.UserID(ctx)
		userID = &id
	}

	stats, err := h.Products.Stats(ctx, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, stats)
}

func (h *ProductsHandler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	result := h.Lookup.Lookup(r.Context(), r.PathValue("ean"))
	httpx.WriteJSON(w, http.StatusOK, result)
}
