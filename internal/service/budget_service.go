package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/opsfin/be-cc-approvals/internal/apperr"
	"github.com/opsfin/be-cc-approvals/internal/client"
)

// BudgetAPI is the slice of the persistence service the budget side
// needs. Implemented by client.BudgetClient.
type BudgetAPI interface {
	GetEligibleCostCentres(ctx context.Context, ccType, subType, fiscalYear string) ([]client.EligibleCostCentre, error)
	GetFiscalYears(ctx context.Context, ccNo string) ([]string, error)
	GetBudgetForCCAndYear(ctx context.Context, ccNo, year string) (*client.CostCentreBudget, error)
	GetDCAList(ctx context.Context, ccType, subType, ccNo, fiscalYear string) ([]client.DCAOption, error)
	AssignDCABudget(ctx context.Context, req *client.AssignDCABudgetRequest) (*client.AssignDCABudgetResponse, error)
}

// BudgetService resolves budget pools, opens allocation sessions and
// submits validated allocations.
type BudgetService struct {
	remote   BudgetAPI
	events   *client.EventPublisher
	log      zerolog.Logger
	inflight inflight
}

// NewBudgetService creates a new BudgetService.
func NewBudgetService(remote BudgetAPI, events *client.EventPublisher, log zerolog.Logger) *BudgetService {
	return &BudgetService{remote: remote, events: events, log: log}
}

// EligibleCostCentres lists cost centres allocatable for a type/sub-type.
func (s *BudgetService) EligibleCostCentres(ctx context.Context, ccType, subType, fiscalYear string) ([]client.EligibleCostCentre, error) {
	return s.remote.GetEligibleCostCentres(ctx, ccType, subType, fiscalYear)
}

// FiscalYears lists the fiscal years a cost centre tracks budgets for.
func (s *BudgetService) FiscalYears(ctx context.Context, ccNo string) ([]string, error) {
	return s.remote.GetFiscalYears(ctx, ccNo)
}

// StartSession resolves the budget pool for the header's cost centre
// and seeds an allocation session with its DCA list. Fiscal-year
// scoped cost centres resolve their pool per year; the rest use the
// lifetime pool from the eligible-cost-centre listing.
func (s *BudgetService) StartSession(ctx context.Context, header AllocationHeader) (*AllocationSession, error) {
	if header.CCNo == "" {
		return nil, apperr.InvalidInput("ccNo", "cost centre code is required")
	}

	var pool client.CostCentreBudget
	if header.FiscalYear != "" {
		b, err := s.remote.GetBudgetForCCAndYear(ctx, header.CCNo, header.FiscalYear)
		if err != nil {
			return nil, err
		}
		pool = *b
	} else {
		centres, err := s.remote.GetEligibleCostCentres(ctx, header.CostCentreType, header.CostCentreSubType, "")
		if err != nil {
			return nil, err
		}
		found := false
		for _, cc := range centres {
			if cc.CCNo == header.CCNo {
				if cc.ApplyFiscalYear {
					return nil, apperr.InvalidInput("fiscalYear",
						"cost centre "+header.CCNo+" tracks budgets per fiscal year")
				}
				pool = client.CostCentreBudget{CCBudget: cc.CCBudget, BalanceBudget: cc.BudgetBalance}
				found = true
				break
			}
		}
		if !found {
			return nil, apperr.NotFound("costCentre", header.CCNo)
		}
	}

	dcas, err := s.remote.GetDCAList(ctx, header.CostCentreType, header.CostCentreSubType, header.CCNo, header.FiscalYear)
	if err != nil {
		return nil, err
	}

	session := NewAllocationSession(header, pool, dcas)
	s.log.Debug().
		Str("session_id", session.ID).
		Str("cc_no", header.CCNo).
		Int("dcas", len(dcas)).
		Msg("Allocation session opened")
	return session, nil
}

// SubmitAllocation validates a session locally, builds the minimal
// payload and sends it. Nothing is retried; a failed call leaves the
// session untouched for the user to resubmit.
func (s *BudgetService) SubmitAllocation(ctx context.Context, session *AllocationSession, actorID string) (string, error) {
	if err := s.inflight.begin("assignDCABudget"); err != nil {
		return "", err
	}
	defer s.inflight.end("assignDCABudget")

	if err := session.ValidateForSubmit(); err != nil {
		return "", err
	}

	req := session.BuildSubmission()
	resp, err := s.remote.AssignDCABudget(ctx, req)
	if err != nil {
		return "", err
	}

	s.log.Info().
		Str("cc_no", req.CCNo).
		Int("allocations", len(req.Allocations)).
		Str("reference", resp.ReferenceNumber).
		Msg("DCA budget assigned")

	s.events.PublishBudgetEvent("assigned", req.CCNo, actorID, map[string]any{
		"reference_number": resp.ReferenceNumber,
		"allocations":      len(req.Allocations),
	})
	return resp.ReferenceNumber, nil
}
