package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"incubatorhub/internal/model"
	"incubatorhub/internal/service/grant"
)

type stubStore struct {
	docs map[string]grant.StoredCatalog
}

func (s *stubStore) Get(_ context.Context, startupID string) (*grant.StoredCatalog, error) {
	stored, ok := s.docs[startupID]
	if !ok {
		return nil, nil
	}
	return &stored, nil
}

func (s *stubStore) Put(_ context.Context, startupID string, catalog model.GrantCatalog, _ int) error {
	s.docs[startupID] = grant.StoredCatalog{
		StartupID: startupID,
		Catalog:   catalog,
		StoredAt:  time.Now().UTC(),
	}
	return nil
}

func (s *stubStore) List(_ context.Context) ([]grant.StoredCatalog, error) {
	out := []grant.StoredCatalog{}
	for _, stored := range s.docs {
		out = append(out, stored)
	}
	return out, nil
}

func newTestRouter() (*gin.Engine, *stubStore) {
	gin.SetMode(gin.TestMode)
	store := &stubStore{docs: map[string]grant.StoredCatalog{}}
	store.docs["s-1"] = grant.StoredCatalog{
		StartupID: "s-1",
		Catalog: model.GrantCatalog{
			Version: 1,
			Grants: []model.GrantRecord{
				{
					ID:                    "g-1",
					Name:                  "Seed Grant",
					Currency:              "INR",
					TotalSanctionedAmount: 100000,
					Disbursements:         []model.GrantDisbursement{},
					Expenditures:          []model.GrantExpenditure{},
					Compliance:            []model.GrantCompliance{},
				},
			},
		},
		StoredAt: time.Now().UTC(),
	}
	svc := grant.NewService(store, nil, nil, nil, grant.Policy{}, nil)

	r := gin.New()
	grantHandler := NewGrantHandler(svc)
	reportHandler := NewReportHandler(svc)
	startups := r.Group("/startups/:id/grants")
	startups.GET("", grantHandler.GetCatalog)
	startups.GET("/snapshot", grantHandler.GetSnapshot)
	startups.POST("/:grantId/disbursements", grantHandler.RequestDisbursement)
	startups.PATCH("/:grantId/disbursements/:disbursementId", grantHandler.UpdateDisbursementStatus)
	startups.POST("/:grantId/reports/utilization-certificate", reportHandler.GenerateUtilizationCertificate)
	return r, store
}

func doRequest(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestDisbursementEndpoint(t *testing.T) {
	r, store := newTestRouter()

	w := doRequest(t, r, http.MethodPost, "/startups/s-1/grants/g-1/disbursements",
		`{"amount":"25000","requestedBy":"founder","targetReleaseDate":"2024-06-01"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var result grant.WorkflowResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if result.Disbursement.Amount != 25000 {
		t.Fatalf("expected string amount coerced to 25000, got %v", result.Disbursement.Amount)
	}
	if result.Disbursement.Status != model.DisbursementPending {
		t.Fatalf("expected pending, got %q", result.Disbursement.Status)
	}
	if len(store.docs["s-1"].Catalog.Grants[0].Disbursements) != 1 {
		t.Fatal("expected disbursement persisted")
	}
}

func TestRequestDisbursementValidationErrors(t *testing.T) {
	r, _ := newTestRouter()

	w := doRequest(t, r, http.MethodPost, "/startups/s-1/grants/g-1/disbursements", `{"amount":0}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("zero amount: status = %d, want 400", w.Code)
	}

	w = doRequest(t, r, http.MethodPost, "/startups/s-1/grants/missing/disbursements", `{"amount":100}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown grant: status = %d, want 404", w.Code)
	}

	w = doRequest(t, r, http.MethodPost, "/startups/s-1/grants/g-1/disbursements", `not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed body: status = %d, want 400", w.Code)
	}
}

func TestUpdateDisbursementStatusEndpoint(t *testing.T) {
	r, store := newTestRouter()

	w := doRequest(t, r, http.MethodPost, "/startups/s-1/grants/g-1/disbursements", `{"amount":100}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("setup request failed: %d", w.Code)
	}
	id := store.docs["s-1"].Catalog.Grants[0].Disbursements[0].ID

	w = doRequest(t, r, http.MethodPatch, "/startups/s-1/grants/g-1/disbursements/"+id,
		`{"status":"released","actor":"manager","releaseDate":"2024-01-10"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("release: status = %d, body = %s", w.Code, w.Body.String())
	}

	// Released is terminal.
	w = doRequest(t, r, http.MethodPatch, "/startups/s-1/grants/g-1/disbursements/"+id,
		`{"status":"rejected"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("transition out of released: status = %d, want 409", w.Code)
	}

	w = doRequest(t, r, http.MethodPatch, "/startups/s-1/grants/g-1/disbursements/"+id,
		`{"status":"shipped"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid status: status = %d, want 400", w.Code)
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	r, _ := newTestRouter()

	w := doRequest(t, r, http.MethodGet, "/startups/s-1/grants/snapshot", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var snap grant.GrantFinancialSummary
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if snap.GrantID != "g-1" || snap.TotalSanctioned != 100000 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	w = doRequest(t, r, http.MethodGet, "/startups/s-1/grants/snapshot?grantId=missing", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown grant: status = %d, want 404", w.Code)
	}
}

func TestUtilizationCertificateEndpoint(t *testing.T) {
	r, _ := newTestRouter()

	w := doRequest(t, r, http.MethodPost, "/startups/s-1/grants/g-1/reports/utilization-certificate",
		`{"period":{"start":"2024-01-01","end":"2024-01-31"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var cert grant.UtilizationCertificate
	if err := json.Unmarshal(w.Body.Bytes(), &cert); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if cert.CertificateNumber == "" {
		t.Fatal("expected a generated certificate number")
	}

	// Missing bounds read as an invalid period.
	w = doRequest(t, r, http.MethodPost, "/startups/s-1/grants/g-1/reports/utilization-certificate",
		`{"period":{"start":"2024-01-01"}}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing end: status = %d, want 400", w.Code)
	}
}
