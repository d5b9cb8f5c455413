package invoice

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/facture/internal/archive"
	"github.com/MrJamesThe3rd/facture/internal/customer"
	"github.com/MrJamesThe3rd/facture/internal/invoice"
	"github.com/MrJamesThe3rd/facture/internal/pricing"
	"github.com/MrJamesThe3rd/facture/internal/renderer"
	"github.com/MrJamesThe3rd/facture/internal/workbench"
)

type Handler struct {
	wb        *workbench.Workbench
	formatter *pricing.Formatter
	now       func() time.Time
}

func NewHandler(wb *workbench.Workbench, formatter *pricing.Formatter) *Handler {
	return &Handler{wb: wb, formatter: formatter, now: time.Now}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/sequence", h.sequence)
	r.Get("/drafts/new", h.newDraft)
	r.Post("/quote", h.quote)
	r.Post("/invoices", h.generate)

	r.Get("/templates", h.listTemplates)
	r.Get("/templates/{name}", h.loadTemplate)
	r.Put("/templates/{name}", h.saveTemplate)

	r.Get("/history", h.listHistory)
	r.Get("/history/{id}", h.loadHistory)
}

type sequenceResponse struct {
	Current int `json:"current"`
}

func (h *Handler) sequence(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, sequenceResponse{Current: h.wb.CurrentNumber()})
}

func (h *Handler) newDraft(w http.ResponseWriter, _ *http.Request) {
	h.writeDraft(w, h.wb.NewDraft(h.now()))
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	d, ok := h.decodeDraft(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, toTotalsResponse(h.wb.Recalculate(d), h.formatter))
}

type serviceErrorResponse struct {
	Error          string `json:"error"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
	UpstreamBody   string `json:"upstream_body,omitempty"`
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	d, ok := h.decodeDraft(w, r)
	if !ok {
		return
	}

	res, err := h.wb.Generate(r.Context(), d, h.now())
	if err != nil {
		var svcErr *renderer.ServiceError

		switch {
		case errors.Is(err, renderer.ErrMissingAPIKey):
			writeJSON(w, http.StatusServiceUnavailable, serviceErrorResponse{Error: err.Error()})
		case errors.As(err, &svcErr):
			writeJSON(w, http.StatusBadGateway, serviceErrorResponse{
				Error:          "invoice service rejected the request",
				UpstreamStatus: svcErr.StatusCode,
				UpstreamBody:   svcErr.Body,
			})
		default:
			slog.Error("failed to generate invoice", "error", err)
			writeJSON(w, http.StatusBadGateway, serviceErrorResponse{Error: err.Error()})
		}

		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="invoice_`+res.Number+`.pdf"`)
	w.Header().Set("X-Invoice-Number", res.Number)
	w.Header().Set("X-History-Id", res.HistoryID)
	w.Header().Set("X-Next-Number", strconv.Itoa(res.Next))
	w.WriteHeader(http.StatusCreated)

	if _, err := w.Write(res.PDF); err != nil {
		slog.Error("failed to write pdf", "error", err)
	}
}

func (h *Handler) listTemplates(w http.ResponseWriter, _ *http.Request) {
	names, err := h.wb.Templates()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, names)
}

func (h *Handler) loadTemplate(w http.ResponseWriter, r *http.Request) {
	d, err := h.wb.LoadTemplate(pathParam(r, "name"), h.now())
	if err != nil {
		writeArchiveError(w, err)
		return
	}

	h.writeDraft(w, d)
}

func (h *Handler) saveTemplate(w http.ResponseWriter, r *http.Request) {
	d, ok := h.decodeDraft(w, r)
	if !ok {
		return
	}

	if err := h.wb.SaveTemplate(pathParam(r, "name"), d); err != nil {
		writeArchiveError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listHistory(w http.ResponseWriter, _ *http.Request) {
	ids, err := h.wb.History()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ids)
}

func (h *Handler) loadHistory(w http.ResponseWriter, r *http.Request) {
	d, err := h.wb.LoadHistory(pathParam(r, "id"), h.now())
	if err != nil {
		writeArchiveError(w, err)
		return
	}

	h.writeDraft(w, d)
}

// decodeDraft reads a draft from the request body on top of a fresh one and
// applies the named customer, if any.
func (h *Handler) decodeDraft(w http.ResponseWriter, r *http.Request) (invoice.Draft, bool) {
	req := toDraftDTO(h.wb.NewDraft(h.now()))
	req.Items = nil

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return invoice.Draft{}, false
	}

	d, err := req.toDraft()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return invoice.Draft{}, false
	}

	if d.Customer != "" {
		c, ok := h.wb.Customer(d.Customer)
		if !ok {
			http.Error(w, customer.ErrNotFound.Error(), http.StatusBadRequest)
			return invoice.Draft{}, false
		}

		d.Prefix = c.Prefix

		if d.To == "" {
			d.To = c.Address
		}
	}

	return d, true
}

func (h *Handler) writeDraft(w http.ResponseWriter, d invoice.Draft) {
	writeJSON(w, http.StatusOK, draftResponse{
		Draft:  toDraftDTO(d),
		Totals: toTotalsResponse(d.Totals(), h.formatter),
	})
}

func writeArchiveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, archive.ErrInvalidName), errors.Is(err, invoice.ErrInvalidNumber):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, archive.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		slog.Error("archive operation failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)

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
