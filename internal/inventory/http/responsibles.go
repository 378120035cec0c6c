package http

import (
	"net/http"

	"github.com/aussiebroadwan/stocktake/internal/inventory/service"
	"github.com/aussiebroadwan/stocktake/pkg/httpx"
)

type ResponsiblesHandler struct {
	Responsibles *service.ResponsibleService
}

func (h *ResponsiblesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	list, err := h.Responsibles.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toResponsibleResponses(list))
}
