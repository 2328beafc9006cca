package hierarchy

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	apperrors "github.com/frahmantamala/recognition-portal/internal"
	"github.com/frahmantamala/recognition-portal/internal/auth"
	"github.com/frahmantamala/recognition-portal/internal/core/clock"
	"github.com/frahmantamala/recognition-portal/internal/core/events"
	"github.com/frahmantamala/recognition-portal/internal/user"
	"github.com/samber/lo"
)

const DefaultImportBatchSize = 100

// Store is the persistence the hierarchy manager needs. Inside Transaction
// only the Store handed to fn may be used.
type Store interface {
	Transaction(ctx context.Context, fn func(tx Store) error) error
	GetUser(ctx context.Context, id int64) (*user.User, error)
	GetUsers(ctx context.Context, ids []int64) ([]*user.User, error)
	CountUsers(ctx context.Context) (int64, error)
	SetManager(ctx context.Context, ids []int64, managerID *int64) error
	SetAttributes(ctx context.Context, ids []int64, attrs Attributes) error
	UnassignReports(ctx context.Context, managerID int64) (int64, error)
	DeleteThanksInvolving(ctx context.Context, userID int64) (int64, error)
	DeleteUser(ctx context.Context, id int64) error
	ExistingIdentities(ctx context.Context, usernames, emails []string) (map[string]bool, map[string]bool, error)
	InsertUsers(ctx context.Context, users []*user.User, batchSize int) error
}

type Service struct {
	store      Store
	batchSize  int
	bcryptCost int
	publisher  events.Publisher
	clock      clock.Clock
	logger     *slog.Logger
}

func NewService(store Store, batchSize, bcryptCost int, clk clock.Clock, publisher events.Publisher, logger *slog.Logger) *Service {
	if batchSize <= 0 {
		batchSize = DefaultImportBatchSize
	}
	return &Service{
		store:      store,
		batchSize:  batchSize,
		bcryptCost: bcryptCost,
		publisher:  publisher,
		clock:      clk,
		logger:     logger,
	}
}

// ReassignManager sets or clears a single manager edge.
func (s *Service) ReassignManager(ctx context.Context, userID int64, managerID *int64) (*user.User, error) {
	if managerID != nil && *managerID == userID {
		s.logger.Info("manager reassignment rejected", "user_id", userID, "reason", "self management")
		return nil, apperrors.ErrSelfManagement.WithDetails(map[string]interface{}{"userId": userID})
	}

	var updated *user.User
	err := s.store.Transaction(ctx, func(tx Store) error {
		target, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if target.IsAdmin() {
			return apperrors.ErrAdminImmutable.WithDetails(map[string]interface{}{"userId": userID})
		}

		if managerID != nil {
			if err := s.ensureAcyclic(ctx, tx, []int64{userID}, *managerID); err != nil {
				return err
			}
		}

		if err := tx.SetManager(ctx, []int64{userID}, managerID); err != nil {
			return err
		}
		target.ManagerID = managerID
		updated = target
		return nil
	})
	if err != nil {
		s.logger.Info("manager reassignment rejected", "user_id", userID, "manager_id", managerID, "error", err)
		return nil, err
	}

	s.logger.Info("manager reassigned", "user_id", userID, "manager_id", managerID)
	s.publish(ctx, events.NewUsersUpdatedEvent([]int64{userID}, s.clock.Now()))
	return updated, nil
}

// BulkUpdate applies req to every non-admin target in one transaction.
func (s *Service) BulkUpdate(ctx context.Context, req BulkUpdateRequest) (*BulkUpdateResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	attrs := req.Attributes()
	if attrs.Empty() && !req.Manager.Changes() {
		return nil, apperrors.NewValidationError("no fields to update", apperrors.ErrCodeValidationFailed)
	}

	ids := lo.Uniq(req.UserIDs)
	result := &BulkUpdateResult{}

	err := s.store.Transaction(ctx, func(tx Store) error {
		users, err := tx.GetUsers(ctx, ids)
		if err != nil {
			return err
		}
		if missing, _ := lo.Difference(ids, lo.Map(users, func(u *user.User, _ int) int64 { return u.ID })); len(missing) > 0 {
			sortIDs(missing)
			return apperrors.ErrUserNotFound.WithDetails(map[string]interface{}{"userIds": missing})
		}

		admins, eligible := lo.FilterReject(users, func(u *user.User, _ int) bool { return u.IsAdmin() })
		result.ExcludedIDs = userIDs(admins)
		result.UpdatedIDs = userIDs(eligible)
		if len(eligible) == 0 {
			return apperrors.ErrNoEligibleTargets
		}

		if req.Manager.Mode == ManagerSet {
			managerID := *req.Manager.ManagerID
			if lo.Contains(result.UpdatedIDs, managerID) {
				return apperrors.ErrSelfManagement.WithDetails(map[string]interface{}{"userId": managerID})
			}
			if err := s.ensureAcyclic(ctx, tx, result.UpdatedIDs, managerID); err != nil {
				return err
			}
		}

		if !attrs.Empty() {
			if err := tx.SetAttributes(ctx, result.UpdatedIDs, attrs); err != nil {
				return err
			}
		}
		if req.Manager.Changes() {
			if err := tx.SetManager(ctx, result.UpdatedIDs, req.Manager.ManagerID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Info("bulk update rejected", "user_ids", ids, "error", err)
		return nil, err
	}

	s.logger.Info("bulk update applied",
		"updated", len(result.UpdatedIDs),
		"excluded_admins", len(result.ExcludedIDs),
		"manager_mode", req.Manager.Mode)
	s.publish(ctx, events.NewUsersUpdatedEvent(result.UpdatedIDs, s.clock.Now()))
	return result, nil
}

// DeleteUser removes a non-admin user together with every thanks that
// references them, and unassigns their reports, in one transaction.
func (s *Service) DeleteUser(ctx context.Context, actor *auth.User, userID int64) (*DeleteSummary, error) {
	summary := &DeleteSummary{UserID: userID}
	err := s.store.Transaction(ctx, func(tx Store) error {
		target, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if target.IsAdmin() {
			return apperrors.ErrAdminImmutable.WithDetails(map[string]interface{}{"userId": userID})
		}

		if summary.ReportsUnassigned, err = tx.UnassignReports(ctx, userID); err != nil {
			return err
		}
		if summary.ThanksDeleted, err = tx.DeleteThanksInvolving(ctx, userID); err != nil {
			return err
		}
		return tx.DeleteUser(ctx, userID)
	})
	if err != nil {
		s.logger.Warn("user deletion failed", "user_id", userID, "error", err)
		return nil, err
	}

	s.logger.Warn("user deleted",
		"user_id", userID,
		"actor_id", actorID(actor),
		"reports_unassigned", summary.ReportsUnassigned,
		"thanks_deleted", summary.ThanksDeleted)
	s.publish(ctx, events.NewUserDeletedEvent(userID, summary.ReportsUnassigned, summary.ThanksDeleted, s.clock.Now()))
	return summary, nil
}

// BulkImport inserts every valid, novel row and reports the rest as skipped.
// Row numbers in the summary are 1-based.
func (s *Service) BulkImport(ctx context.Context, rows []ImportRow, defaultPassword string) (*ImportSummary, error) {
	if err := (ImportRequest{DefaultPassword: defaultPassword, Rows: rows}).Validate(); err != nil {
		return nil, err
	}

	rows = lo.Map(rows, func(r ImportRow, _ int) ImportRow {
		r.Normalize()
		return r
	})

	takenUsernames, takenEmails, err := s.store.ExistingIdentities(ctx,
		lo.Map(rows, func(r ImportRow, _ int) string { return r.Username }),
		lo.Map(rows, func(r ImportRow, _ int) string { return r.Email }))
	if err != nil {
		return nil, err
	}

	managerIDs := lo.Uniq(lo.FilterMap(rows, func(r ImportRow, _ int) (int64, bool) {
		if r.ManagerID == nil {
			return 0, false
		}
		return *r.ManagerID, true
	}))
	knownManagers := map[int64]bool{}
	if len(managerIDs) > 0 {
		managers, err := s.store.GetUsers(ctx, managerIDs)
		if err != nil {
			return nil, err
		}
		for _, m := range managers {
			knownManagers[m.ID] = true
		}
	}

	summary := &ImportSummary{Skipped: []SkippedRow{}}
	var accepted []ImportRow
	seenUsernames := map[string]bool{}
	seenEmails := map[string]bool{}

	for i, row := range rows {
		skip := func(reason string) {
			summary.Skipped = append(summary.Skipped, SkippedRow{Row: i + 1, Username: row.Username, Reason: reason})
		}

		if row.ParseError != "" {
			skip(row.ParseError)
			continue
		}
		if verr := row.Validate(); verr != nil {
			skip(verr.GetDetailedMessage())
			continue
		}
		if takenUsernames[row.Username] || seenUsernames[row.Username] {
			skip("username exists")
			continue
		}
		if takenEmails[row.Email] || seenEmails[row.Email] {
			skip("email exists")
			continue
		}
		if row.ManagerID != nil && !knownManagers[*row.ManagerID] {
			skip("manager not found")
			continue
		}

		seenUsernames[row.Username] = true
		seenEmails[row.Email] = true
		accepted = append(accepted, row)
	}

	if len(accepted) > 0 {
		hash, err := auth.HashPassword(defaultPassword, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to hash password", err)
		}

		now := s.clock.Now()
		users := lo.Map(accepted, func(r ImportRow, _ int) *user.User {
			role := user.Role(r.Role)
			if role == "" {
				role = user.RoleEmployee
			}
			return &user.User{
				Username:     r.Username,
				Email:        r.Email,
				Name:         r.Name,
				Title:        r.Title,
				Department:   r.Department,
				ManagerID:    r.ManagerID,
				Role:         role,
				PasswordHash: hash,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
		})

		err = s.store.Transaction(ctx, func(tx Store) error {
			return tx.InsertUsers(ctx, users, s.batchSize)
		})
		if err != nil {
			s.logger.Error("bulk import insert failed", "rows", len(users), "error", err)
			return nil, err
		}
		summary.InsertedCount = len(users)
	}

	s.logger.Info("bulk import finished", "inserted", summary.InsertedCount, "skipped", len(summary.Skipped))
	s.publish(ctx, events.NewUsersImportedEvent(summary.InsertedCount, len(summary.Skipped), s.clock.Now()))
	return summary, nil
}

// ensureAcyclic fails if managerID's chain reaches any of ids. The walk is
// capped at the user count so corrupt data cannot loop forever.
func (s *Service) ensureAcyclic(ctx context.Context, tx Store, ids []int64, managerID int64) error {
	limit, err := tx.CountUsers(ctx)
	if err != nil {
		return err
	}

	targets := lo.SliceToMap(ids, func(id int64) (int64, bool) { return id, true })
	cur := &managerID
	for hops := int64(0); cur != nil; hops++ {
		if targets[*cur] {
			return apperrors.ErrCycleDetected.WithDetails(map[string]interface{}{"managerId": managerID, "userId": *cur})
		}
		if hops > limit {
			s.logger.Error("manager chain exceeds user count", "manager_id", managerID)
			return apperrors.ErrCycleDetected.WithDetails(map[string]interface{}{"managerId": managerID})
		}
		m, err := tx.GetUser(ctx, *cur)
		if err != nil {
			if errors.Is(err, apperrors.ErrUserNotFound) && *cur == managerID {
				return apperrors.ErrUserNotFound.WithDetails(map[string]interface{}{"managerId": managerID})
			}
			return err
		}
		cur = m.ManagerID
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

func userIDs(users []*user.User) []int64 {
	ids := lo.Map(users, func(u *user.User, _ int) int64 { return u.ID })
	sortIDs(ids)
	return ids
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

func actorID(a *auth.User) int64 {
	if a == nil {
		return 0
	}
	return a.ID
}
