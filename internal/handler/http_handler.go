package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/opsfin/be-cc-approvals/internal/apperr"
	"github.com/opsfin/be-cc-approvals/internal/client"
	"github.com/opsfin/be-cc-approvals/internal/service"
)

// HTTPHandler handles HTTP requests.
type HTTPHandler struct {
	hierarchy    *service.HierarchyService
	budget       *service.BudgetService
	verification *service.VerificationService
	registry     *client.RegistryClient
	limitGroups  map[int]bool
	log          zerolog.Logger
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(
	hierarchy *service.HierarchyService,
	budget *service.BudgetService,
	verification *service.VerificationService,
	registry *client.RegistryClient,
	limitGroups map[int]bool,
	log zerolog.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		hierarchy:    hierarchy,
		budget:       budget,
		verification: verification,
		registry:     registry,
		limitGroups:  limitGroups,
		log:          log,
	}
}

// Register mounts all routes on the router.
func (h *HTTPHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/v1/workflows", h.ListWorkflows).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/workflows", h.CreateWorkflow).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/workflows/{id}", h.GetWorkflow).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/workflows/{id}", h.UpdateWorkflow).Methods(http.MethodPut)
	r.HandleFunc("/api/v1/workflows/{id}", h.DeleteWorkflow).Methods(http.MethodDelete)
	r.HandleFunc("/api/v1/workflows/{id}/pending-references", h.PendingReferences).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/workflows/{id}/route", h.ResolveRoute).Methods(http.MethodGet)

	r.HandleFunc("/api/v1/verifications/pending", h.PendingForRole).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/verifications/{ref}/confirm", h.ConfirmVerification).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/verifications/{ref}/reject", h.ArmReject).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/verifications/{ref}/reject", h.CancelReject).Methods(http.MethodDelete)
	r.HandleFunc("/api/v1/verifications/{ref}/reject", h.RejectStatus).Methods(http.MethodGet)

	r.HandleFunc("/api/v1/budget/eligible-cost-centres", h.EligibleCostCentres).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/budget/cost-centres/{ccNo}/fiscal-years", h.FiscalYears).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/budget/allocations", h.SubmitAllocation).Methods(http.MethodPost)
}

// ── Workflow definitions ──────────────────────────────────────────────────────

// WorkflowLevelRequest is one level row in a definition request.
type WorkflowLevelRequest struct {
	RoleID        string           `json:"roleId"`
	ApprovalLimit *decimal.Decimal `json:"approvalLimit,omitempty"`
}

// WorkflowVariantRequest is one variant tab in a definition request.
type WorkflowVariantRequest struct {
	CostCentreType string                 `json:"costCentreType"`
	Levels         []WorkflowLevelRequest `json:"levels"`
}

// WorkflowDefinitionRequest is a complete definition to create or update.
type WorkflowDefinitionRequest struct {
	WorkflowID string                   `json:"workflowId"`
	Variants   []WorkflowVariantRequest `json:"variants"`
	ActorID    string                   `json:"actorId"`
}

// ListWorkflows returns every stored workflow definition.
func (h *HTTPHandler) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	defs, err := h.hierarchy.ListWorkflows(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"workflows": defs})
}

// GetWorkflow returns one definition by id.
func (h *HTTPHandler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	def, err := h.hierarchy.GetWorkflow(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, def)
}

// CreateWorkflow assembles a builder session from the request and
// submits it. Every builder invariant (path rule, duplicate roles,
// committed variants) is enforced on the way through.
func (h *HTTPHandler) CreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req WorkflowDefinitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.New(apperr.CodeValidation, "invalid request body"))
		return
	}

	session, err := h.assembleSession(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	created, err := h.hierarchy.CreateWorkflow(r.Context(), session, req.ActorID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

// UpdateWorkflow replaces a stored definition. The force query flag is
// the user's explicit override after a pending-approvals warning.
func (h *HTTPHandler) UpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	workflowID := mux.Vars(r)["id"]
	force := r.URL.Query().Get("force") == "true"

	var req WorkflowDefinitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.New(apperr.CodeValidation, "invalid request body"))
		return
	}
	req.WorkflowID = workflowID

	session, err := h.assembleSession(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	def, err := session.Submit()
	if err != nil {
		h.writeError(w, err)
		return
	}

	updated, err := h.hierarchy.UpdateWorkflow(r.Context(), workflowID, def, force, req.ActorID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, updated)
}

// DeleteWorkflow removes a definition when the usage guard allows it.
func (h *HTTPHandler) DeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	workflowID := mux.Vars(r)["id"]
	actorID := r.URL.Query().Get("actorId")

	if err := h.hierarchy.DeleteWorkflow(r.Context(), workflowID, actorID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PendingReferences returns the in-flight approvals referencing a
// workflow, so the caller can warn before editing.
func (h *HTTPHandler) PendingReferences(w http.ResponseWriter, r *http.Request) {
	refs, err := h.hierarchy.BeginEdit(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"pendingReferences": refs})
}

// ResolveRoute returns the level chain governing an entity's approval.
func (h *HTTPHandler) ResolveRoute(w http.ResponseWriter, r *http.Request) {
	workflowID := mux.Vars(r)["id"]
	ccType := r.URL.Query().Get("costCentreType")

	variant, err := h.verification.ResolveRoute(r.Context(), workflowID, ccType)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, variant)
}

// assembleSession drives a builder session from a definition request.
func (h *HTTPHandler) assembleSession(ctx context.Context, req *WorkflowDefinitionRequest) (*service.BuilderSession, error) {
	catalog, err := h.registry.GetWorkflowCatalog(ctx)
	if err != nil {
		return nil, err
	}
	roles, err := h.registry.GetUserRoles(ctx)
	if err != nil {
		return nil, err
	}
	ccTypes, err := h.registry.GetCostCentreTypes(ctx)
	if err != nil {
		return nil, err
	}
	typeValues := make([]string, 0, len(ccTypes))
	for _, t := range ccTypes {
		typeValues = append(typeValues, t.Value)
	}

	session := service.NewBuilderSession(catalog, typeValues, roles, h.limitGroups)
	if err := session.SelectWorkflow(req.WorkflowID); err != nil {
		return nil, err
	}

	for _, variant := range req.Variants {
		key := variant.CostCentreType
		for i, lvl := range variant.Levels {
			if i > 0 {
				if err := session.AddLevel(key); err != nil {
					return nil, err
				}
			}
			if err := session.SetRole(key, i, lvl.RoleID); err != nil {
				return nil, err
			}
			if lvl.ApprovalLimit != nil {
				if err := session.SetApprovalLimit(key, i, *lvl.ApprovalLimit); err != nil {
					return nil, err
				}
			}
		}
		if err := session.CommitVariant(key); err != nil {
			return nil, err
		}
	}
	return session, nil
}

// ── Verification ──────────────────────────────────────────────────────────────

// PendingForRole lists the in-flight references whose current level is
// assigned to the caller's role.
func (h *HTTPHandler) PendingForRole(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	workflowID := q.Get("workflowId")
	role := q.Get("role")
	if workflowID == "" || role == "" {
		h.writeError(w, apperr.New(apperr.CodeValidation, "workflowId and role are required"))
		return
	}

	refs, err := h.verification.PendingForRole(r.Context(), workflowID, role)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"pendingReferences": refs})
}

// ConfirmVerification approves the current level of a target. Any
// armed reject countdown for the target is disarmed first.
func (h *HTTPHandler) ConfirmVerification(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["ref"]

	var req struct {
		ActedBy string `json:"actedBy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.New(apperr.CodeValidation, "invalid request body"))
		return
	}

	if err := h.verification.Confirm(r.Context(), ref, req.ActedBy); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "confirmed"})
}

// ArmReject starts the reject countdown for a target.
func (h *HTTPHandler) ArmReject(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["ref"]

	var req struct {
		ActedBy string `json:"actedBy"`
		Reason  string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.New(apperr.CodeValidation, "invalid request body"))
		return
	}
	if req.Reason == "" {
		h.writeError(w, apperr.InvalidInput("reason", "rejection reason is required"))
		return
	}

	if err := h.verification.ArmReject(ref, req.ActedBy, req.Reason); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, map[string]any{
		"status":    "armed",
		"remaining": h.verification.RejectRemaining(ref),
	})
}

// CancelReject disarms an armed countdown.
func (h *HTTPHandler) CancelReject(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["ref"]
	cancelled := h.verification.CancelReject(ref)
	h.writeJSON(w, http.StatusOK, map[string]bool{"cancelled": cancelled})
}

// RejectStatus returns the ticks left on a target's countdown.
func (h *HTTPHandler) RejectStatus(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["ref"]
	h.writeJSON(w, http.StatusOK, map[string]int{
		"remaining": h.verification.RejectRemaining(ref),
	})
}

// ── Budget allocation ─────────────────────────────────────────────────────────

// AllocationEntryRequest is one edit applied to an allocation session.
type AllocationEntryRequest struct {
	DCACode        string            `json:"dcaCode"`
	Value          string            `json:"value"`
	Mode           string            `json:"mode"`
	SubAllocations map[string]string `json:"subAllocations,omitempty"`
}

// SubmitAllocationRequest opens a session, applies every entry and
// submits the result in one call.
type SubmitAllocationRequest struct {
	CostCentreType    string                   `json:"costCentreType"`
	CostCentreSubType string                   `json:"costCentreSubType"`
	CCNo              string                   `json:"ccNo"`
	FiscalYear        string                   `json:"fiscalYear,omitempty"`
	Remarks           string                   `json:"remarks"`
	Entries           []AllocationEntryRequest `json:"entries"`
	ActorID           string                   `json:"actorId"`
}

// EligibleCostCentres lists allocatable cost centres.
func (h *HTTPHandler) EligibleCostCentres(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	centres, err := h.budget.EligibleCostCentres(r.Context(), q.Get("type"), q.Get("subType"), q.Get("fiscalYear"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"costCentres": centres})
}

// FiscalYears lists a cost centre's budget years.
func (h *HTTPHandler) FiscalYears(w http.ResponseWriter, r *http.Request) {
	years, err := h.budget.FiscalYears(r.Context(), mux.Vars(r)["ccNo"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"fiscalYears": years})
}

// SubmitAllocation runs the full reconciler flow: open a session
// against the cost centre's pool, apply each entry, validate and
// submit. Overallocation during entry is reported as a warning; only
// submission enforces the non-negative balance.
func (h *HTTPHandler) SubmitAllocation(w http.ResponseWriter, r *http.Request) {
	var req SubmitAllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.New(apperr.CodeValidation, "invalid request body"))
		return
	}

	session, err := h.budget.StartSession(r.Context(), service.AllocationHeader{
		CostCentreType:    req.CostCentreType,
		CostCentreSubType: req.CostCentreSubType,
		CCNo:              req.CCNo,
		FiscalYear:        req.FiscalYear,
		Remarks:           req.Remarks,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	var warnings []string
	for _, entry := range req.Entries {
		over, err := session.SetAllocation(entry.DCACode, entry.Value, service.AllocationMode(entry.Mode))
		if err != nil {
			h.writeError(w, err)
			return
		}
		if over {
			warnings = append(warnings, "allocation to "+entry.DCACode+" exceeds the remaining balance")
		}
		for subCode, amount := range entry.SubAllocations {
			if err := session.SetSubAllocation(entry.DCACode, subCode, amount); err != nil {
				h.writeError(w, err)
				return
			}
		}
	}

	reference, err := h.budget.SubmitAllocation(r.Context(), session, req.ActorID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]any{
		"referenceNumber":  reference,
		"remainingBalance": session.RemainingBalance(),
		"warnings":         warnings,
	})
}

// ── Response helpers ──────────────────────────────────────────────────────────

func (h *HTTPHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Warn().Err(err).Msg("Failed to encode response")
	}
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperr.CodeOf(err) {
	case apperr.CodeValidation:
		status = http.StatusBadRequest
	case apperr.CodeNotFound:
		status = http.StatusNotFound
	case apperr.CodeNotConfigured:
		status = http.StatusUnprocessableEntity
	case apperr.CodeConflictBlocked:
		status = http.StatusConflict
	case apperr.CodeRemoteFailure:
		status = http.StatusBadGateway
	}

	h.log.Debug().Err(err).Int("status", status).Msg("Request failed")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"code":  string(apperr.CodeOf(err)),
		"error": err.Error(),
	})
}
