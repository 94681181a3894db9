package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsfin/be-cc-approvals/internal/client"
	"github.com/opsfin/be-cc-approvals/internal/service"
	"github.com/opsfin/be-cc-approvals/internal/store"
)

// upstream stands in for the persistence service every client talks to.
type upstream struct {
	pending   []store.PendingReference
	canDelete bool
	created   []store.WorkflowDefinition
	assigned  []client.AssignDCABudgetRequest
}

func (u *upstream) router() *mux.Router {
	r := mux.NewRouter()
	enc := func(w http.ResponseWriter, body any) {
		json.NewEncoder(w).Encode(body)
	}

	r.HandleFunc("/api/v1/lookup/cost-centre-types", func(w http.ResponseWriter, _ *http.Request) {
		enc(w, []client.CostCentreTypeOption{
			{Value: "100", Label: "Performing"},
			{Value: "101", Label: "Non-Performing"},
			{Value: "102", Label: "Fiscal Year"},
		})
	})
	r.HandleFunc("/api/v1/lookup/user-roles", func(w http.ResponseWriter, _ *http.Request) {
		enc(w, []client.RoleOption{
			{RoleID: "R1", RoleName: "Creator"},
			{RoleID: "R2", RoleName: "Verifier"},
			{RoleID: "R3", RoleName: "Manager"},
		})
	})
	r.HandleFunc("/api/v1/lookup/workflow-catalog", func(w http.ResponseWriter, _ *http.Request) {
		enc(w, []client.WorkflowCatalogEntry{
			{GroupID: 1, Group: "Cost Centre", WorkflowID: "WF-CC-CREATE", WorkflowName: "Cost Centre Creation", IsCostCentreApplicable: true},
		})
	})

	r.HandleFunc("/api/v1/workflows", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			var def store.WorkflowDefinition
			json.NewDecoder(r.Body).Decode(&def)
			u.created = append(u.created, def)
			w.WriteHeader(http.StatusCreated)
			enc(w, map[string]any{"workflow": def})
			return
		}
		enc(w, u.created)
	})
	r.HandleFunc("/api/v1/workflows/{id}/pending-references", func(w http.ResponseWriter, _ *http.Request) {
		enc(w, u.pending)
	})
	r.HandleFunc("/api/v1/workflows/{id}/can-delete", func(w http.ResponseWriter, _ *http.Request) {
		enc(w, map[string]bool{"canDelete": u.canDelete})
	})
	r.HandleFunc("/api/v1/workflows/{id}", func(w http.ResponseWriter, r *http.Request) {
		for _, def := range u.created {
			if def.WorkflowID == mux.Vars(r)["id"] {
				enc(w, def)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	})

	r.HandleFunc("/api/v1/budget/eligible-cost-centres", func(w http.ResponseWriter, _ *http.Request) {
		enc(w, []map[string]any{
			{"ccNo": "CC-001", "ccBudget": "100000", "budgetBalance": "80000", "applyFiscalYear": false},
		})
	})
	r.HandleFunc("/api/v1/budget/dca-list", func(w http.ResponseWriter, _ *http.Request) {
		enc(w, []client.DCAOption{
			{Code: "ENG", Name: "Engineering"},
			{Code: "OPS", Name: "Operations"},
		})
	})
	r.HandleFunc("/api/v1/budget/assign-dca", func(w http.ResponseWriter, r *http.Request) {
		var req client.AssignDCABudgetRequest
		json.NewDecoder(r.Body).Decode(&req)
		u.assigned = append(u.assigned, req)
		enc(w, client.AssignDCABudgetResponse{ReferenceNumber: "BGT-42"})
	})

	r.HandleFunc("/api/v1/approvals/{ref}/confirm", func(w http.ResponseWriter, _ *http.Request) {
		enc(w, map[string]string{"status": "ok"})
	})
	r.HandleFunc("/api/v1/approvals/{ref}/reject", func(w http.ResponseWriter, _ *http.Request) {
		enc(w, map[string]string{"status": "ok"})
	})
	return r
}

func newTestRouter(t *testing.T, u *upstream) *mux.Router {
	t.Helper()
	srv := httptest.NewServer(u.router())
	t.Cleanup(srv.Close)

	log := zerolog.Nop()
	hc := client.NewHTTPClient(srv.URL, 5*time.Second)
	events := client.NewEventPublisher(nil, log)

	workflows := client.NewWorkflowClient(hc)
	st := store.NewWorkflowStore(workflows, log)
	guard := service.NewUsageGuard(workflows, log)
	hierarchy := service.NewHierarchyService(st, guard, events, log)
	budget := service.NewBudgetService(client.NewBudgetClient(hc), events, log)
	verification := service.NewVerificationService(st, service.NewApprovalRouter(), client.NewApprovalActionClient(hc), workflows, log)

	h := NewHTTPHandler(hierarchy, budget, verification, client.NewRegistryClient(hc), map[int]bool{2: true}, log)
	r := mux.NewRouter()
	h.Register(r)
	return r
}

func doJSON(t *testing.T, r *mux.Router, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func validDefinitionRequest() WorkflowDefinitionRequest {
	variant := func(ccType string) WorkflowVariantRequest {
		return WorkflowVariantRequest{
			CostCentreType: ccType,
			Levels: []WorkflowLevelRequest{
				{RoleID: "R1"},
				{RoleID: "R2"},
			},
		}
	}
	return WorkflowDefinitionRequest{
		WorkflowID: "WF-CC-CREATE",
		Variants:   []WorkflowVariantRequest{variant("100"), variant("101"), variant("102")},
		ActorID:    "user-1",
	}
}

func TestCreateWorkflowEndpoint(t *testing.T) {
	u := &upstream{}
	r := newTestRouter(t, u)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/workflows", validDefinitionRequest())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created store.WorkflowDefinition
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, "WF-CC-CREATE", created.WorkflowID)
	require.Len(t, created.Variants, 3)

	// Second level of the performing variant sits on path 2.
	assert.Equal(t, "100", created.Variants[0].CostCentreType)
	require.Len(t, created.Variants[0].Levels, 2)
	assert.Equal(t, 0, created.Variants[0].Levels[0].PathID)
	assert.Equal(t, 2, created.Variants[0].Levels[1].PathID)

	require.Len(t, u.created, 1)
}

func TestCreateWorkflowDuplicateRole(t *testing.T) {
	r := newTestRouter(t, &upstream{})

	req := validDefinitionRequest()
	req.Variants[0].Levels[1].RoleID = "R1"

	rec := doJSON(t, r, http.MethodPost, "/api/v1/workflows", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "VALIDATION", body["code"])
}

func TestGetWorkflowNotFound(t *testing.T) {
	r := newTestRouter(t, &upstream{})

	rec := doJSON(t, r, http.MethodGet, "/api/v1/workflows/WF-MISSING", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteWorkflowBlocked(t *testing.T) {
	r := newTestRouter(t, &upstream{canDelete: false})

	rec := doJSON(t, r, http.MethodDelete, "/api/v1/workflows/WF-CC-CREATE", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPendingReferencesEndpoint(t *testing.T) {
	u := &upstream{pending: []store.PendingReference{
		{ReferenceID: "A-1", EntityRef: "CC-002", Status: "pending", CurrentLevel: 1},
	}}
	r := newTestRouter(t, u)

	rec := doJSON(t, r, http.MethodGet, "/api/v1/workflows/WF-CC-CREATE/pending-references", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		PendingReferences []store.PendingReference `json:"pendingReferences"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.PendingReferences, 1)
	assert.Equal(t, "A-1", body.PendingReferences[0].ReferenceID)
}

func TestSubmitAllocationEndpoint(t *testing.T) {
	u := &upstream{}
	r := newTestRouter(t, u)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/budget/allocations", SubmitAllocationRequest{
		CostCentreType:    "100",
		CostCentreSubType: "A",
		CCNo:              "CC-001",
		Remarks:           "annual allocation",
		Entries: []AllocationEntryRequest{
			{DCACode: "ENG", Value: "25", Mode: "percentage"},
			{DCACode: "OPS", Value: "30000", Mode: "amount"},
		},
		ActorID: "user-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		ReferenceNumber  string   `json:"referenceNumber"`
		RemainingBalance string   `json:"remainingBalance"`
		Warnings         []string `json:"warnings"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "BGT-42", body.ReferenceNumber)
	assert.Equal(t, "25000", body.RemainingBalance)
	assert.Empty(t, body.Warnings)

	require.Len(t, u.assigned, 1)
	assert.Len(t, u.assigned[0].Allocations, 2)
}

func TestSubmitAllocationOverBalance(t *testing.T) {
	r := newTestRouter(t, &upstream{})

	rec := doJSON(t, r, http.MethodPost, "/api/v1/budget/allocations", SubmitAllocationRequest{
		CostCentreType:    "100",
		CostCentreSubType: "A",
		CCNo:              "CC-001",
		Remarks:           "too much",
		Entries: []AllocationEntryRequest{
			{DCACode: "ENG", Value: "95000", Mode: "amount"},
		},
		ActorID: "user-1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRejectCountdownEndpoints(t *testing.T) {
	r := newTestRouter(t, &upstream{})

	rec := doJSON(t, r, http.MethodPost, "/api/v1/verifications/A-1/reject", map[string]string{
		"actedBy": "user-1",
		"reason":  "wrong amount",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var armed struct {
		Status    string `json:"status"`
		Remaining int    `json:"remaining"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&armed))
	assert.Equal(t, "armed", armed.Status)
	assert.Equal(t, service.DefaultRejectTicks, armed.Remaining)

	rec = doJSON(t, r, http.MethodGet, "/api/v1/verifications/A-1/reject", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodDelete, "/api/v1/verifications/A-1/reject", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var cancelled map[string]bool
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&cancelled))
	assert.True(t, cancelled["cancelled"])
}

func TestRejectWithoutReason(t *testing.T) {
	r := newTestRouter(t, &upstream{})

	rec := doJSON(t, r, http.MethodPost, "/api/v1/verifications/A-1/reject", map[string]string{
		"actedBy": "user-1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
