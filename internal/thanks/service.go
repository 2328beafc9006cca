package thanks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	apperrors "github.com/frahmantamala/recognition-portal/internal"
	"github.com/frahmantamala/recognition-portal/internal/auth"
	"github.com/frahmantamala/recognition-portal/internal/core/clock"
	"github.com/frahmantamala/recognition-portal/internal/core/events"
	"github.com/frahmantamala/recognition-portal/internal/user"
	"github.com/samber/lo"
)

const (
	DefaultRecentLimit = 10
	MaxListLimit       = 100
)

// Repository interface defines the data access methods for thanks
type Repository interface {
	Create(ctx context.Context, t *Thanks) error
	GetByID(ctx context.Context, id int64) (*Thanks, error)
	// Finalize writes the outcome only if the record is still pending and
	// reports whether this call won.
	Finalize(ctx context.Context, id int64, status Status, approverID int64, at time.Time, reason *string) (bool, error)
	ListAllPending(ctx context.Context) ([]*Thanks, error)
	ListPendingForRecipients(ctx context.Context, recipientIDs []int64) ([]*Thanks, error)
	List(ctx context.Context, filter ListFilter) ([]*Thanks, int64, error)
	ListRecent(ctx context.Context, limit int) ([]*Thanks, error)
	ListReceived(ctx context.Context, userID int64, status *Status) ([]*Thanks, error)
	ListSent(ctx context.Context, userID int64) ([]*Thanks, error)
	Save(ctx context.Context, t *Thanks) error
	Delete(ctx context.Context, id int64) error
}

type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

// Authorizer decides whether approverID may act on a record.
type Authorizer interface {
	CanApprove(ctx context.Context, approverID int64, t *Thanks) (bool, error)
}

// Service handles the thanks lifecycle
type Service struct {
	repo       Repository
	users      UserLookup
	authorizer Authorizer
	publisher  events.Publisher
	clock      clock.Clock
	logger     *slog.Logger
}

func NewService(repo Repository, users UserLookup, clk clock.Clock, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		users:     users,
		publisher: publisher,
		clock:     clk,
		logger:    logger,
	}
}

// SetAuthorizer wires the approval router, which itself reads from this service.
func (s *Service) SetAuthorizer(a Authorizer) {
	s.authorizer = a
}

// Create records a new pending thanks from fromID.
func (s *Service) Create(ctx context.Context, fromID int64, dto CreateThanksDTO) (*Thanks, error) {
	dto.Message = strings.TrimSpace(dto.Message)
	if err := dto.Validate(); err != nil {
		s.logger.Info("thanks validation failed", "error", err, "from_id", fromID)
		return nil, err
	}

	if dto.ToID == fromID {
		s.logger.Info("self thanks rejected", "user_id", fromID)
		return nil, apperrors.ErrInvalidRecipient
	}

	for _, id := range []int64{fromID, dto.ToID} {
		if err := s.requireUser(ctx, id); err != nil {
			return nil, err
		}
	}

	t := New(fromID, dto.ToID, dto.Message, s.clock.Now())
	if err := s.repo.Create(ctx, t); err != nil {
		s.logger.Error("failed to create thanks", "error", err, "from_id", fromID, "to_id", dto.ToID)
		return nil, err
	}

	s.logger.Info("thanks created", "thanks_id", t.ID, "from_id", t.FromID, "to_id", t.ToID)
	s.publish(ctx, events.NewThanksCreatedEvent(t.ID, t.FromID, t.ToID, t.CreatedAt))

	return t, nil
}

// Transition approves or rejects a pending record. Checks run in a fixed
// order: existence, finality, reason, authority. The write itself is
// conditional on the record still being pending, so concurrent approvers
// cannot both succeed.
func (s *Service) Transition(ctx context.Context, thanksID, approverID int64, action Action, reason *string) (*Thanks, error) {
	if action != ActionApprove && action != ActionReject {
		return nil, apperrors.ErrInvalidAction
	}

	t, err := s.repo.GetByID(ctx, thanksID)
	if err != nil {
		return nil, err
	}

	if !t.IsPending() {
		s.logger.Warn("transition on finalized thanks",
			"thanks_id", thanksID,
			"approver_id", approverID,
			"current_status", t.Status)
		return nil, apperrors.ErrAlreadyFinalized.WithDetails(map[string]interface{}{"thanksId": thanksID, "status": t.Status})
	}

	reason = trimmedReason(reason)
	if action == ActionReject && reason == nil {
		return nil, apperrors.ErrMissingReason
	}

	if s.authorizer == nil {
		return nil, apperrors.NewInternalError("approval authorizer not configured", nil)
	}
	allowed, err := s.authorizer.CanApprove(ctx, approverID, t)
	if err != nil {
		return nil, err
	}
	if !allowed {
		s.logger.Warn("unauthorized approver",
			"thanks_id", thanksID,
			"approver_id", approverID,
			"to_id", t.ToID)
		return nil, apperrors.ErrUnauthorizedApprover.WithDetails(map[string]interface{}{"thanksId": thanksID})
	}

	now := s.clock.Now()
	won, err := s.repo.Finalize(ctx, thanksID, action.Status(), approverID, now, reason)
	if err != nil {
		s.logger.Error("failed to finalize thanks", "error", err, "thanks_id", thanksID)
		return nil, err
	}
	if !won {
		s.logger.Warn("lost finalize race", "thanks_id", thanksID, "approver_id", approverID)
		return nil, apperrors.ErrAlreadyFinalized.WithDetails(map[string]interface{}{"thanksId": thanksID})
	}

	t.Finalize(action, approverID, reason, now)

	s.logger.Info("thanks finalized",
		"thanks_id", thanksID,
		"approver_id", approverID,
		"status", t.Status)
	s.publish(ctx, events.NewThanksFinalizedEvent(action == ActionApprove, t.ID, approverID, t.ToID, t.Points, now))

	return t, nil
}

func (s *Service) Approve(ctx context.Context, thanksID, approverID int64) (*Thanks, error) {
	return s.Transition(ctx, thanksID, approverID, ActionApprove, nil)
}

func (s *Service) Reject(ctx context.Context, thanksID, approverID int64, reason string) (*Thanks, error) {
	return s.Transition(ctx, thanksID, approverID, ActionReject, &reason)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Thanks, error) {
	return s.repo.GetByID(ctx, id)
}

// ListPending returns pending records, all of them when recipientIDs is nil
// and only those addressed to recipientIDs otherwise.
func (s *Service) ListPending(ctx context.Context, recipientIDs []int64) ([]*Thanks, error) {
	if recipientIDs == nil {
		return s.repo.ListAllPending(ctx)
	}
	if len(recipientIDs) == 0 {
		return []*Thanks{}, nil
	}
	return s.repo.ListPendingForRecipients(ctx, lo.Uniq(recipientIDs))
}

func (s *Service) ListAll(ctx context.Context, filter ListFilter) ([]*Thanks, int64, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, 0, apperrors.NewValidationFieldError("status", "status must be one of pending, approved, rejected", apperrors.ErrCodeValidationFailed)
	}
	if filter.Limit <= 0 || filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) ListRecent(ctx context.Context, limit int) ([]*Thanks, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.repo.ListRecent(ctx, limit)
}

// ListForUser returns everything the user sent or received, newest first.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]*Thanks, error) {
	received, err := s.repo.ListReceived(ctx, userID, nil)
	if err != nil {
		return nil, err
	}
	sent, err := s.repo.ListSent(ctx, userID)
	if err != nil {
		return nil, err
	}

	all := lo.UniqBy(append(received, sent...), func(t *Thanks) int64 { return t.ID })
	sortNewestFirst(all)
	return all, nil
}

// Stats returns approved thanks received and all thanks sent by userID.
func (s *Service) Stats(ctx context.Context, userID int64) (*UserStats, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	approved := StatusApproved
	received, err := s.repo.ListReceived(ctx, userID, &approved)
	if err != nil {
		return nil, err
	}
	sent, err := s.repo.ListSent(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserStats{
		UserID:         userID,
		Received:       received,
		Sent:           sent,
		ReceivedPoints: lo.SumBy(received, func(t *Thanks) int { return t.Points }),
	}, nil
}

// AdminUpdate edits a record outside the approval workflow. It bypasses
// monotonicity and hierarchy checks but keeps the record-level invariants.
func (s *Service) AdminUpdate(ctx context.Context, actor *auth.User, id int64, dto AdminUpdateDTO) (*Thanks, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if dto.Empty() {
		return nil, apperrors.NewValidationError("no fields to update", apperrors.ErrCodeValidationFailed)
	}

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := t.Status

	if dto.Message != nil {
		t.Message = strings.TrimSpace(*dto.Message)
	}
	if dto.FromID != nil {
		t.FromID = *dto.FromID
	}
	if dto.ToID != nil {
		t.ToID = *dto.ToID
	}
	if t.FromID == t.ToID {
		return nil, apperrors.ErrInvalidRecipient
	}
	if dto.FromID != nil {
		if err := s.requireUser(ctx, t.FromID); err != nil {
			return nil, err
		}
	}
	if dto.ToID != nil {
		if err := s.requireUser(ctx, t.ToID); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()
	target := t.Status
	if dto.Status != nil {
		target = *dto.Status
	}
	reason := t.RejectReason
	if dto.RejectReason != nil {
		reason = trimmedReason(dto.RejectReason)
	}

	switch {
	case target == StatusPending:
		t.Reopen()
	case target != before:
		t.Finalize(actionFor(target), actor.ID, reason, now)
	case target == StatusRejected:
		t.RejectReason = reason
	}

	if err := t.CheckConsistency(); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, t); err != nil {
		s.logger.Error("failed to save admin override", "error", err, "thanks_id", id)
		return nil, err
	}

	s.logger.Warn("thanks overridden by admin",
		"thanks_id", id,
		"admin_id", actor.ID,
		"from_status", before,
		"to_status", t.Status)
	s.publish(ctx, events.NewThanksOverriddenEvent(id, actor.ID, string(t.Status), now))

	return t, nil
}

func (s *Service) AdminDelete(ctx context.Context, actor *auth.User, id int64) error {
	if !actor.IsAdmin() {
		return apperrors.ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Warn("thanks deleted by admin", "thanks_id", id, "admin_id", actor.ID)
	s.publish(ctx, events.NewThanksDeletedEvent(id, actor.ID, s.clock.Now()))
	return nil
}

func (s *Service) requireUser(ctx context.Context, id int64) error {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return apperrors.ErrUserNotFound.WithDetails(map[string]interface{}{"userId": id})
		}
		return fmt.Errorf("lookup user %d: %w", id, err)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Error("failed to publish event", "event_type", e.EventType(), "error", err)
	}
}

func actionFor(status Status) Action {
	if status == StatusApproved {
		return ActionApprove
	}
	return ActionReject
}

func sortNewestFirst(ts []*Thanks) {
	sort.SliceStable(ts, func(i, j int) bool {
		if !ts[i].CreatedAt.Equal(ts[j].CreatedAt) {
			return ts[i].CreatedAt.After(ts[j].CreatedAt)
		}
		return ts[i].ID > ts[j].ID
	})
}
