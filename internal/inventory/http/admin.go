package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/stocktake/internal/inventory/service"
	"github.com/aussiebroadwan/stocktake/internal/inventory/store/drivers/sqlite"
	"github.com/aussiebroadwan/stocktake/pkg/httpx"
)

type AdminHandler struct {
	Products  *service.ProductService
	Export    *service.ExportService
	Backups   *service.BackupService
	PoolStats func() sqlite.PoolStats
}

// HandleListSent serves the review screen: all submitted rows, optionally
// filtered by a search term or to validated rows only.
func (h *AdminHandler) HandleListSent(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if term := query.Get("q"); term != "" {
		products, err := h.Products.SearchSent(r.Context(), term)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toSentProductResponses(products))
		return
	}

	products, err := h.Products.ListSent(r.Context(), query.Get("validated") == "1")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toSentProductResponses(products))
}

func (h *AdminHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	data, filename, err := h.Export.Workbook(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

type backupCreatedResponse struct {
	Artifact string `json:"artifact"`
}

func (h *AdminHandler) HandleCreateBackup(w http.ResponseWriter, r *http.Request) {
	path, err := h.Backups.Create(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, backupCreatedResponse{Artifact: path})
}

type backupListResponse struct {
	Backups []service.BackupInfo `json:"backups"`
	Stats   service.BackupStats  `json:"stats"`
}

func (h *AdminHandler) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := h.Backups.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, backupListResponse{
		Backups: backups,
		Stats:   h.Backups.Stats(),
	})
}

type restoreRequest struct {
	Name string `json:"name"`
}

func (h *AdminHandler) HandleRestoreBackup(w http.ResponseWriter, r *http.Request) {
	var req restoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "artifact name required")
		return
	}

	if err := h.Backups.Restore(r.Context(), req.Name); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) HandlePoolStats(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.PoolStats())
}
