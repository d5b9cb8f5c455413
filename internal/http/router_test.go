package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/text/language"

	"github.com/MrJamesThe3rd/facture/internal/archive"
	"github.com/MrJamesThe3rd/facture/internal/customer"
	customerStore "github.com/MrJamesThe3rd/facture/internal/customer/store"
	factureHttp "github.com/MrJamesThe3rd/facture/internal/http"
	customerHandler "github.com/MrJamesThe3rd/facture/internal/http/customer"
	invoiceHandler "github.com/MrJamesThe3rd/facture/internal/http/invoice"
	settingsHandler "github.com/MrJamesThe3rd/facture/internal/http/settings"
	"github.com/MrJamesThe3rd/facture/internal/pricing"
	"github.com/MrJamesThe3rd/facture/internal/renderer"
	"github.com/MrJamesThe3rd/facture/internal/sequence"
	"github.com/MrJamesThe3rd/facture/internal/settings"
	"github.com/MrJamesThe3rd/facture/internal/store"
	"github.com/MrJamesThe3rd/facture/internal/workbench"
)

func newServer(t *testing.T) (*httptest.Server, *workbench.MockRenderer) {
	t.Helper()

	dir := t.TempDir()

	s, err := store.New(dir)
	require.NoError(t, err)

	arch, err := archive.New(dir)
	require.NoError(t, err)

	reg := customer.NewRegistry(customerStore.New(s))
	reg.LoadAll()

	r := workbench.NewMockRenderer(gomock.NewController(t))

	wb := workbench.New(settings.NewService(s), reg, sequence.New(s), arch, r, workbench.Rates{GST: "5.00", QST: "9.975"})

	router := factureHttp.New(
		[]string{"http://localhost:3000"},
		settingsHandler.NewHandler(wb),
		customerHandler.NewHandler(wb),
		invoiceHandler.NewHandler(wb, pricing.NewFormatter(language.English)),
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv, r
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) *http.Response {
	t.Helper()

	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, srv.URL+path, rdr)
	require.NoError(t, err)

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestSettings(t *testing.T) {
	srv, _ := newServer(t)

	resp := do(t, srv, http.MethodGet, "/api/v1/settings", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got settings.Settings
	decode(t, resp, &got)
	assert.Equal(t, settings.Defaults(), got)

	resp = do(t, srv, http.MethodPut, "/api/v1/settings", `{"currency": " EUR "}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &got)
	assert.Equal(t, "EUR", got.Currency)
	assert.Equal(t, settings.Defaults().Logo, got.Logo)
}

func TestCustomers(t *testing.T) {
	srv, _ := newServer(t)

	type testCase struct {
		name       string
		body       string
		wantStatus int
	}

	tests := []testCase{
		{name: "Create", body: `{"name": "Acme", "address": "1 Road", "prefix": "ACME-"}`, wantStatus: http.StatusCreated},
		{name: "Duplicate", body: `{"name": " Acme ", "address": "x"}`, wantStatus: http.StatusConflict},
		{name: "EmptyName", body: `{"name": "  "}`, wantStatus: http.StatusBadRequest},
		{name: "BadJSON", body: `{`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, srv, http.MethodPost, "/api/v1/customers", tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}

	resp := do(t, srv, http.MethodPut, "/api/v1/customers/Globex%20Corp", `{"address": "2 Ave", "prefix": "GLX-"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/v1/customers", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []map[string]string
	decode(t, resp, &list)
	assert.Equal(t, []map[string]string{
		{"name": "Acme", "address": "1 Road", "prefix": "ACME-"},
		{"name": "Globex Corp", "address": "2 Ave", "prefix": "GLX-"},
	}, list)

	resp = do(t, srv, http.MethodDelete, "/api/v1/customers/Acme", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/v1/customers/Acme", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestQuote(t *testing.T) {
	srv, _ := newServer(t)

	resp := do(t, srv, http.MethodPost, "/api/v1/quote", `{"items": [{"description": "Service", "quantity": "1", "unit_cost": "100"}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		CombinedTaxRate string            `json:"combined_tax_rate"`
		Total           string            `json:"total"`
		Labels          map[string]string `json:"labels"`
	}
	decode(t, resp, &got)

	assert.Equal(t, "14.975", got.CombinedTaxRate)
	assert.Equal(t, "114.975", got.Total)
	assert.Equal(t, "Total: 114.98", got.Labels["total"])
}

func TestQuote_InvalidInput(t *testing.T) {
	srv, _ := newServer(t)

	for _, body := range []string{
		`{"date": "01/03/2024"}`,
		`{"discount_mode": "bogus"}`,
		`{"customer": "Nobody"}`,
	} {
		resp := do(t, srv, http.MethodPost, "/api/v1/quote", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
}

func TestGenerateInvoice(t *testing.T) {
	srv, r := newServer(t)

	resp := do(t, srv, http.MethodPost, "/api/v1/customers", `{"name": "Acme", "address": "1 Road", "prefix": "ACME-"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	r.EXPECT().Render(gomock.Any(), gomock.Any()).Return([]byte("%PDF-1.4"), nil)

	resp = do(t, srv, http.MethodPost, "/api/v1/invoices", `{
		"customer": "Acme",
		"items": [{"description": "Design", "quantity": "2", "unit_cost": "50"}]
	}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, "ACME-0001", resp.Header.Get("X-Invoice-Number"))
	assert.Equal(t, "2", resp.Header.Get("X-Next-Number"))

	pdf, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), pdf)

	id := resp.Header.Get("X-History-Id")
	require.NotEmpty(t, id)

	resp = do(t, srv, http.MethodGet, "/api/v1/history", "")
	var ids []string
	decode(t, resp, &ids)
	assert.Equal(t, []string{id}, ids)

	resp = do(t, srv, http.MethodGet, "/api/v1/history/"+id, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loaded struct {
		Draft map[string]any `json:"draft"`
	}
	decode(t, resp, &loaded)
	assert.Equal(t, "ACME-0001", loaded.Draft["number"])
	assert.Equal(t, "Acme", loaded.Draft["customer"])
	assert.Equal(t, "14.975", loaded.Draft["gst_rate"])

	resp = do(t, srv, http.MethodGet, "/api/v1/sequence", "")
	var seq map[string]int
	decode(t, resp, &seq)
	assert.Equal(t, 1, seq["current"])
}

func TestGenerateInvoice_RendererRejects(t *testing.T) {
	srv, r := newServer(t)

	r.EXPECT().Render(gomock.Any(), gomock.Any()).Return(nil, &renderer.ServiceError{StatusCode: 401, Body: "invalid key"})

	resp := do(t, srv, http.MethodPost, "/api/v1/invoices", `{"items": [{"description": "A", "quantity": "1", "unit_cost": "1"}]}`)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var got map[string]any
	decode(t, resp, &got)
	assert.EqualValues(t, 401, got["upstream_status"])
	assert.Equal(t, "invalid key", got["upstream_body"])

	resp = do(t, srv, http.MethodGet, "/api/v1/sequence", "")
	var seq map[string]int
	decode(t, resp, &seq)
	assert.Equal(t, 1, seq["current"])
}

func TestGenerateInvoice_MissingKey(t *testing.T) {
	srv, r := newServer(t)

	r.EXPECT().Render(gomock.Any(), gomock.Any()).Return(nil, renderer.ErrMissingAPIKey)

	resp := do(t, srv, http.MethodPost, "/api/v1/invoices", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestTemplates(t *testing.T) {
	srv, _ := newServer(t)

	body := `{"sequence_number": 9, "discount": "20", "shipping": "4", "items": [{"description": "Retainer", "quantity": "1", "unit_cost": "500"}]}`

	resp := do(t, srv, http.MethodPut, "/api/v1/templates/monthly", body)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/v1/templates", "")
	var names []string
	decode(t, resp, &names)
	assert.Equal(t, []string{"monthly"}, names)

	resp = do(t, srv, http.MethodGet, "/api/v1/templates/monthly", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loaded struct {
		Draft map[string]any `json:"draft"`
	}
	decode(t, resp, &loaded)
	assert.Equal(t, "0009", loaded.Draft["number"])
	assert.Equal(t, "0", loaded.Draft["discount"])
	assert.Equal(t, "0", loaded.Draft["shipping"])
	assert.Equal(t, "5.00", loaded.Draft["gst_rate"])

	resp = do(t, srv, http.MethodGet, "/api/v1/templates/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, srv, http.MethodPut, "/api/v1/templates/.hidden", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/v1/quote", bytes.NewReader(nil))
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}
