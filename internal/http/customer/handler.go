package customer

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/facture/internal/customer"
	"github.com/MrJamesThe3rd/facture/internal/workbench"
)

type Handler struct {
	wb *workbench.Workbench
}

func NewHandler(wb *workbench.Workbench) *Handler {
	return &Handler{wb: wb}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{name}", h.get)
	r.Put("/{name}", h.update)
	r.Delete("/{name}", h.delete)
}

type customerResponse struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Prefix  string `json:"prefix"`
}

func toResponse(c customer.Customer) customerResponse {
	return customerResponse{Name: c.Name, Address: c.Address, Prefix: c.Prefix}
}

func (h *Handler) list(w http.ResponseWriter, _ *http.Request) {
	all := h.wb.Customers()

	resp := make([]customerResponse, len(all))
	for i, c := range all {
		resp[i] = toResponse(c)
	}

	writeJSON(w, http.StatusOK, resp)
}

type createCustomerRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Prefix  string `json:"prefix"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.wb.AddCustomer(req.Name, req.Address, req.Prefix); err != nil {
		switch {
		case errors.Is(err, customer.ErrEmptyName):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, customer.ErrDuplicateName):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			slog.Error("failed to add customer", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	c, _ := h.wb.Customer(strings.TrimSpace(req.Name))
	writeJSON(w, http.StatusCreated, toResponse(c))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	c, ok := h.wb.Customer(nameParam(r))
	if !ok {
		http.Error(w, "customer not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(c))
}

type updateCustomerRequest struct {
	Address string `json:"address"`
	Prefix  string `json:"prefix"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(nameParam(r))
	if name == "" {
		http.Error(w, customer.ErrEmptyName.Error(), http.StatusBadRequest)
		return
	}

	var req updateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.wb.UpdateCustomer(name, req.Address, req.Prefix); err != nil {
		slog.Error("failed to update customer", "name", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	c, _ := h.wb.Customer(name)
	writeJSON(w, http.StatusOK, toResponse(c))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)

	if err := h.wb.RemoveCustomer(name); err != nil {
		slog.Error("failed to remove customer", "name", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func nameParam(r *http.Request) string {
	v := chi.URLParam(r, "name")

	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}

	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
