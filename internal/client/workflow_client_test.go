package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsfin/be-cc-approvals/internal/apperr"
	"github.com/opsfin/be-cc-approvals/internal/store"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*HTTPClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL, 5*time.Second), srv
}

func TestWorkflowClientGet(t *testing.T) {
	hc, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/workflows/WF-1", r.URL.Path)
		json.NewEncoder(w).Encode(store.WorkflowDefinition{
			WorkflowID:   "WF-1",
			WorkflowName: "Cost Centre Creation",
		})
	})
	c := NewWorkflowClient(hc)

	def, err := c.Get(context.Background(), "WF-1")
	require.NoError(t, err)
	assert.Equal(t, "Cost Centre Creation", def.WorkflowName)
}

func TestWorkflowClientCreate(t *testing.T) {
	hc, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var def store.WorkflowDefinition
		require.NoError(t, json.NewDecoder(r.Body).Decode(&def))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"workflow": def})
	})
	c := NewWorkflowClient(hc)

	created, err := c.Create(context.Background(), &store.WorkflowDefinition{WorkflowID: "WF-9"})
	require.NoError(t, err)
	assert.Equal(t, "WF-9", created.WorkflowID)
}

func TestWorkflowClientCanDelete(t *testing.T) {
	hc, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/workflows/WF-1/can-delete", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]bool{"canDelete": false})
	})
	c := NewWorkflowClient(hc)

	ok, err := c.CanDelete(context.Background(), "WF-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHTTPClientErrorMapping(t *testing.T) {
	t.Run("server error maps to remote failure", func(t *testing.T) {
		hc, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})
		c := NewWorkflowClient(hc)

		_, err := c.List(context.Background())
		assert.True(t, apperr.IsCode(err, apperr.CodeRemoteFailure))
	})

	t.Run("404 maps to not found", func(t *testing.T) {
		hc, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		c := NewWorkflowClient(hc)

		_, err := c.Get(context.Background(), "WF-MISSING")
		assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
	})

	t.Run("unreachable host maps to remote failure", func(t *testing.T) {
		hc := NewHTTPClient("http://127.0.0.1:1", time.Second)
		c := NewWorkflowClient(hc)

		_, err := c.List(context.Background())
		assert.True(t, apperr.IsCode(err, apperr.CodeRemoteFailure))
	})
}

func TestBudgetClientQueries(t *testing.T) {
	hc, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/budget/eligible-cost-centres":
			assert.Equal(t, "100", r.URL.Query().Get("type"))
			assert.Equal(t, "A", r.URL.Query().Get("subType"))
			json.NewEncoder(w).Encode([]map[string]any{
				{"ccNo": "CC-001", "ccBudget": "100000", "budgetBalance": "50000", "applyFiscalYear": false},
			})
		case "/api/v1/budget/cost-centres/CC-001/fiscal-years":
			json.NewEncoder(w).Encode([]string{"2025-26", "2026-27"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})
	c := NewBudgetClient(hc)
	ctx := context.Background()

	centres, err := c.GetEligibleCostCentres(ctx, "100", "A", "")
	require.NoError(t, err)
	require.Len(t, centres, 1)
	assert.Equal(t, "CC-001", centres[0].CCNo)
	assert.True(t, centres[0].CCBudget.Equal(decimal.NewFromInt(100000)))
	assert.False(t, centres[0].ApplyFiscalYear)

	years, err := c.GetFiscalYears(ctx, "CC-001")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-26", "2026-27"}, years)
}
