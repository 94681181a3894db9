package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/opsfin/be-cc-approvals/internal/store"
)

// ApprovalActionAPI issues verification decisions. Implemented by
// client.ApprovalActionClient.
type ApprovalActionAPI interface {
	Confirm(ctx context.Context, referenceID, actedBy string) error
	Reject(ctx context.Context, referenceID, actedBy, reason string) error
}

// VerificationService drives sequential verification: it resolves the
// level chain for a target, checks the acting user's role, and manages
// one reject countdown per verification target.
type VerificationService struct {
	store   *store.WorkflowStore
	router  *ApprovalRouter
	actions ApprovalActionAPI
	usage   UsageAPI
	log     zerolog.Logger

	mu         sync.Mutex
	countdowns map[string]*RejectCountdown
}

// NewVerificationService creates a new VerificationService.
func NewVerificationService(
	st *store.WorkflowStore,
	router *ApprovalRouter,
	actions ApprovalActionAPI,
	usage UsageAPI,
	log zerolog.Logger,
) *VerificationService {
	return &VerificationService{
		store:      st,
		router:     router,
		actions:    actions,
		usage:      usage,
		log:        log,
		countdowns: make(map[string]*RejectCountdown),
	}
}

// ResolveRoute returns the ordered level chain governing an entity of
// the given cost-centre type under a workflow definition.
func (s *VerificationService) ResolveRoute(ctx context.Context, workflowID, costCentreType string) (*store.WorkflowVariant, error) {
	def, err := s.store.Get(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	return s.router.ResolveVariant(def, costCentreType)
}

// CanAct reports whether a user holding userRole may act at a level.
func (s *VerificationService) CanAct(ctx context.Context, workflowID, costCentreType string, levelID int, userRole string) (bool, error) {
	variant, err := s.ResolveRoute(ctx, workflowID, costCentreType)
	if err != nil {
		return false, err
	}
	role, err := s.router.RoleForLevel(variant, levelID)
	if err != nil {
		return false, err
	}
	return role == userRole, nil
}

// PendingForRole returns the in-flight references under a workflow
// whose current level is assigned to userRole, i.e. the targets that
// user may act on next. References whose route cannot be resolved are
// logged and skipped rather than failing the whole listing.
func (s *VerificationService) PendingForRole(ctx context.Context, workflowID, userRole string) ([]store.PendingReference, error) {
	refs, err := s.usage.GetPendingReferences(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	def, err := s.store.Get(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	var out []store.PendingReference
	for _, ref := range refs {
		variant, err := s.router.ResolveVariant(def, ref.CostCentreType)
		if err != nil {
			s.log.Warn().Err(err).
				Str("reference_id", ref.ReferenceID).
				Str("cost_centre_type", ref.CostCentreType).
				Msg("No route configured for pending reference")
			continue
		}
		role, err := s.router.RoleForLevel(variant, ref.CurrentLevel)
		if err != nil {
			s.log.Warn().Err(err).
				Str("reference_id", ref.ReferenceID).
				Int("level", ref.CurrentLevel).
				Msg("Pending reference points past the level chain")
			continue
		}
		if role == userRole {
			out = append(out, ref)
		}
	}
	return out, nil
}

// Confirm approves the current level of a target. Confirm always wins
// over an armed reject countdown: the countdown is disarmed before the
// confirm call is issued, so the rejection can never fire afterwards.
func (s *VerificationService) Confirm(ctx context.Context, referenceID, actedBy string) error {
	if s.CancelReject(referenceID) {
		s.log.Debug().
			Str("reference_id", referenceID).
			Msg("Armed reject countdown disarmed by confirm")
	}
	return s.actions.Confirm(ctx, referenceID, actedBy)
}

// ArmReject starts the 10-second reject countdown for a target. Only
// one countdown may be active per target; arming while one runs is
// refused, leaving cancel or expiry as the only moves.
func (s *VerificationService) ArmReject(referenceID, actedBy, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.countdowns[referenceID]; ok && c.State() == CountdownArmed {
		return c.Arm() // refused: already armed
	}

	c := NewRejectCountdown(DefaultRejectTicks, func() {
		if err := s.actions.Reject(context.Background(), referenceID, actedBy, reason); err != nil {
			s.log.Error().Err(err).
				Str("reference_id", referenceID).
				Msg("Reject call failed after countdown expiry")
		}
	})
	if err := c.Arm(); err != nil {
		return err
	}
	s.countdowns[referenceID] = c

	s.log.Info().
		Str("reference_id", referenceID).
		Int("ticks", DefaultRejectTicks).
		Msg("Reject countdown armed")
	return nil
}

// CancelReject disarms an armed countdown for a target. It reports
// whether one was cancelled; a cancelled rejection never fires.
func (s *VerificationService) CancelReject(referenceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.countdowns[referenceID]
	if !ok {
		return false
	}
	cancelled := c.Cancel()
	if cancelled {
		delete(s.countdowns, referenceID)
		s.log.Info().Str("reference_id", referenceID).Msg("Reject countdown cancelled")
	}
	return cancelled
}

// RejectRemaining returns the ticks left on a target's countdown, or
// zero when none is armed.
func (s *VerificationService) RejectRemaining(referenceID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.countdowns[referenceID]; ok && c.State() == CountdownArmed {
		return c.Remaining()
	}
	return 0
}

// Tick advances every armed countdown by one second. Expired
// countdowns fire their reject call exactly once and are removed.
func (s *VerificationService) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ref, c := range s.countdowns {
		if c.Tick() {
			delete(s.countdowns, ref)
		}
	}
}
