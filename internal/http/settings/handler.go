package settings

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/facture/internal/settings"
	"github.com/MrJamesThe3rd/facture/internal/workbench"
)

type Handler struct {
	wb *workbench.Workbench
}

func NewHandler(wb *workbench.Workbench) *Handler {
	return &Handler{wb: wb}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.get)
	r.Put("/", h.update)
}

func (h *Handler) get(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(h.wb.Settings()); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	req := h.wb.Settings()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	saved := h.wb.SaveSettings(settings.Settings{
		Logo:     req.Logo,
		From:     req.From,
		Currency: req.Currency,
	})

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(saved); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
