package thanks_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/frahmantamala/recognition-portal/internal"
	"github.com/frahmantamala/recognition-portal/internal/auth"
	"github.com/frahmantamala/recognition-portal/internal/core/clock"
	"github.com/frahmantamala/recognition-portal/internal/core/events"
	"github.com/frahmantamala/recognition-portal/internal/thanks"
	"github.com/frahmantamala/recognition-portal/internal/user"
	"github.com/frahmantamala/recognition-portal/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// Mock repository for testing
type mockThanksRepository struct {
	mu          sync.Mutex
	records     map[int64]*thanks.Thanks
	nextID      int64
	finalizeErr error
	// loseRace makes Finalize report that another approver got there first.
	loseRace bool
}

func newMockThanksRepository() *mockThanksRepository {
	return &mockThanksRepository{records: map[int64]*thanks.Thanks{}, nextID: 1}
}

func (m *mockThanksRepository) Create(ctx context.Context, t *thanks.Thanks) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.nextID
	m.nextID++
	c := *t
	m.records[t.ID] = &c
	return nil
}

func (m *mockThanksRepository) GetByID(ctx context.Context, id int64) (*thanks.Thanks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.records[id]
	if !ok {
		return nil, apperrors.ErrThanksNotFound
	}
	c := *t
	return &c, nil
}

func (m *mockThanksRepository) Finalize(ctx context.Context, id int64, status thanks.Status, approverID int64, at time.Time, reason *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finalizeErr != nil {
		return false, m.finalizeErr
	}
	t := m.records[id]
	if m.loseRace || t == nil || t.Status != thanks.StatusPending {
		return false, nil
	}
	t.Status = status
	t.ApprovedByID = &approverID
	t.ApprovedAt = &at
	t.RejectReason = reason
	return true, nil
}

func (m *mockThanksRepository) filter(keep func(*thanks.Thanks) bool) []*thanks.Thanks {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*thanks.Thanks
	for id := int64(1); id < m.nextID; id++ {
		if t, ok := m.records[id]; ok && keep(t) {
			c := *t
			out = append(out, &c)
		}
	}
	return out
}

func (m *mockThanksRepository) ListAllPending(ctx context.Context) ([]*thanks.Thanks, error) {
	return m.filter(func(t *thanks.Thanks) bool { return t.IsPending() }), nil
}

func (m *mockThanksRepository) ListPendingForRecipients(ctx context.Context, ids []int64) ([]*thanks.Thanks, error) {
	set := map[int64]bool{}
	for _, id := range ids {
		set[id] = true
	}
	return m.filter(func(t *thanks.Thanks) bool { return t.IsPending() && set[t.ToID] }), nil
}

func (m *mockThanksRepository) List(ctx context.Context, f thanks.ListFilter) ([]*thanks.Thanks, int64, error) {
	rows := m.filter(func(t *thanks.Thanks) bool { return f.Status == nil || t.Status == *f.Status })
	return rows, int64(len(rows)), nil
}

func (m *mockThanksRepository) ListRecent(ctx context.Context, limit int) ([]*thanks.Thanks, error) {
	rows := m.filter(func(*thanks.Thanks) bool { return true })
	if len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	return rows, nil
}

func (m *mockThanksRepository) ListReceived(ctx context.Context, userID int64, status *thanks.Status) ([]*thanks.Thanks, error) {
	return m.filter(func(t *thanks.Thanks) bool { return t.ToID == userID && (status == nil || t.Status == *status) }), nil
}

func (m *mockThanksRepository) ListSent(ctx context.Context, userID int64) ([]*thanks.Thanks, error) {
	return m.filter(func(t *thanks.Thanks) bool { return t.FromID == userID }), nil
}

func (m *mockThanksRepository) Save(ctx context.Context, t *thanks.Thanks) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[t.ID]; !ok {
		return apperrors.ErrThanksNotFound
	}
	c := *t
	m.records[t.ID] = &c
	return nil
}

func (m *mockThanksRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return apperrors.ErrThanksNotFound
	}
	delete(m.records, id)
	return nil
}

type mockUsers map[int64]*user.User

func (m mockUsers) GetByID(ctx context.Context, id int64) (*user.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

// stubAuthorizer grants approvers listed in allowed.
type stubAuthorizer struct {
	allowed map[int64]bool
	calls   atomic.Int32
}

func (s *stubAuthorizer) CanApprove(ctx context.Context, approverID int64, t *thanks.Thanks) (bool, error) {
	s.calls.Add(1)
	return s.allowed[approverID], nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

const (
	senderID   int64 = 1
	employeeID int64 = 2
	managerID  int64 = 3
	adminID    int64 = 4
	outsiderID int64 = 5
)

var _ = Describe("ThanksService", func() {
	var (
		ctx        context.Context
		repo       *mockThanksRepository
		authorizer *stubAuthorizer
		publisher  *recordingPublisher
		service    *thanks.Service
		now        time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
		repo = newMockThanksRepository()
		authorizer = &stubAuthorizer{allowed: map[int64]bool{managerID: true, adminID: true}}
		publisher = &recordingPublisher{}

		users := mockUsers{
			senderID:   {ID: senderID, Role: user.RoleEmployee},
			employeeID: {ID: employeeID, Role: user.RoleEmployee, ManagerID: ptr(managerID)},
			managerID:  {ID: managerID, Role: user.RoleManager},
			adminID:    {ID: adminID, Role: user.RoleAdmin},
			outsiderID: {ID: outsiderID, Role: user.RoleManager},
		}

		service = thanks.NewService(repo, users, clock.Fixed(now), publisher, logger.Discard())
		service.SetAuthorizer(authorizer)
	})

	Describe("Create", func() {
		It("creates a pending record worth one point", func() {
			t, err := service.Create(ctx, senderID, thanks.CreateThanksDTO{ToID: employeeID, Message: "  great demo  "})
			Expect(err).NotTo(HaveOccurred())
			Expect(t.Status).To(Equal(thanks.StatusPending))
			Expect(t.Points).To(Equal(1))
			Expect(t.Message).To(Equal("great demo"))
			Expect(t.CreatedAt).To(Equal(now))
			Expect(t.ApprovedByID).To(BeNil())
			Expect(t.ApprovedAt).To(BeNil())
			Expect(t.RejectReason).To(BeNil())
			Expect(publisher.types()).To(Equal([]string{events.EventTypeThanksCreated}))

			readBack, err := service.GetByID(ctx, t.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(readBack.FromID).To(Equal(senderID))
			Expect(readBack.ToID).To(Equal(employeeID))
			Expect(readBack.Message).To(Equal("great demo"))
			Expect(readBack.Points).To(Equal(1))
		})

		It("rejects thanking yourself", func() {
			_, err := service.Create(ctx, senderID, thanks.CreateThanksDTO{ToID: senderID, Message: "me"})
			Expect(err).To(MatchError(apperrors.ErrInvalidRecipient))
		})

		It("rejects unknown recipients and senders", func() {
			_, err := service.Create(ctx, senderID, thanks.CreateThanksDTO{ToID: 99, Message: "hi"})
			Expect(errors.Is(err, apperrors.ErrUserNotFound)).To(BeTrue())

			_, err = service.Create(ctx, 98, thanks.CreateThanksDTO{ToID: employeeID, Message: "hi"})
			Expect(errors.Is(err, apperrors.ErrUserNotFound)).To(BeTrue())
		})

		It("rejects a blank message", func() {
			_, err := service.Create(ctx, senderID, thanks.CreateThanksDTO{ToID: employeeID, Message: "   "})
			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodeValidationFailed))
		})
	})

	Describe("Transition", func() {
		var pending *thanks.Thanks

		BeforeEach(func() {
			var err error
			pending, err = service.Create(ctx, senderID, thanks.CreateThanksDTO{ToID: employeeID, Message: "thanks"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("approves and stamps approver and time without a reason", func() {
			t, err := service.Approve(ctx, pending.ID, managerID)
			Expect(err).NotTo(HaveOccurred())
			Expect(t.Status).To(Equal(thanks.StatusApproved))
			Expect(*t.ApprovedByID).To(Equal(managerID))
			Expect(*t.ApprovedAt).To(Equal(now))
			Expect(t.RejectReason).To(BeNil())
			Expect(publisher.types()).To(ContainElement(events.EventTypeThanksApproved))
		})

		It("rejects with a reason", func() {
			t, err := service.Reject(ctx, pending.ID, adminID, "duplicate")
			Expect(err).NotTo(HaveOccurred())
			Expect(t.Status).To(Equal(thanks.StatusRejected))
			Expect(*t.RejectReason).To(Equal("duplicate"))
		})

		It("requires a reason to reject", func() {
			_, err := service.Reject(ctx, pending.ID, managerID, "  ")
			Expect(err).To(MatchError(apperrors.ErrMissingReason))
		})

		It("reports missing records first", func() {
			_, err := service.Transition(ctx, 999, outsiderID, thanks.ActionReject, nil)
			Expect(err).To(MatchError(apperrors.ErrThanksNotFound))
		})

		It("refuses approvers without standing", func() {
			_, err := service.Approve(ctx, pending.ID, outsiderID)
			Expect(errors.Is(err, apperrors.ErrUnauthorizedApprover)).To(BeTrue())
		})

		It("rejects unknown actions", func() {
			_, err := service.Transition(ctx, pending.ID, managerID, thanks.Action("escalate"), nil)
			Expect(err).To(MatchError(apperrors.ErrInvalidAction))
		})

		It("fails every second transition with AlreadyFinalized regardless of actor", func() {
			_, err := service.Approve(ctx, pending.ID, managerID)
			Expect(err).NotTo(HaveOccurred())

			for _, actor := range []int64{managerID, adminID, outsiderID, senderID} {
				_, err = service.Approve(ctx, pending.ID, actor)
				Expect(errors.Is(err, apperrors.ErrAlreadyFinalized)).To(BeTrue())

				_, err = service.Reject(ctx, pending.ID, actor, "late")
				Expect(errors.Is(err, apperrors.ErrAlreadyFinalized)).To(BeTrue())
			}
		})

		It("checks finality before reason and authority", func() {
			_, err := service.Approve(ctx, pending.ID, managerID)
			Expect(err).NotTo(HaveOccurred())
			calls := authorizer.calls.Load()

			_, err = service.Transition(ctx, pending.ID, outsiderID, thanks.ActionReject, nil)
			Expect(errors.Is(err, apperrors.ErrAlreadyFinalized)).To(BeTrue())
			Expect(authorizer.calls.Load()).To(Equal(calls))
		})

		It("reports AlreadyFinalized when the guarded write loses a race", func() {
			repo.loseRace = true
			_, err := service.Approve(ctx, pending.ID, managerID)
			Expect(errors.Is(err, apperrors.ErrAlreadyFinalized)).To(BeTrue())
		})

		It("lets only one of many concurrent approvals succeed", func() {
			var wg sync.WaitGroup
			var mu sync.Mutex
			successes := 0
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func(approver int64) {
					defer wg.Done()
					defer GinkgoRecover()
					if _, err := service.Approve(ctx, pending.ID, approver); err == nil {
						mu.Lock()
						successes++
						mu.Unlock()
					}
				}([]int64{managerID, adminID}[i%2])
			}
			wg.Wait()
			Expect(successes).To(Equal(1))
		})
	})

	Describe("reads", func() {
		It("scopes pending lists by recipient set", func() {
			_, _ = service.Create(ctx, senderID, thanks.CreateThanksDTO{ToID: employeeID, Message: "a"})
			_, _ = service.Create(ctx, employeeID, thanks.CreateThanksDTO{ToID: senderID, Message: "b"})

			all, err := service.ListPending(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))

			scoped, err := service.ListPending(ctx, []int64{employeeID})
			Expect(err).NotTo(HaveOccurred())
			Expect(scoped).To(HaveLen(1))

			none, err := service.ListPending(ctx, []int64{})
			Expect(err).NotTo(HaveOccurred())
			Expect(none).To(BeEmpty())
		})

		It("computes stats from approved received and all sent", func() {
			a, _ := service.Create(ctx, senderID, thanks.CreateThanksDTO{ToID: employeeID, Message: "a"})
			_, _ = service.Create(ctx, senderID, thanks.CreateThanksDTO{ToID: employeeID, Message: "b"})
			_, _ = service.Create(ctx, employeeID, thanks.CreateThanksDTO{ToID: senderID, Message: "c"})
			_, err := service.Approve(ctx, a.ID, managerID)
			Expect(err).NotTo(HaveOccurred())

			stats, err := service.Stats(ctx, employeeID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Received).To(HaveLen(1))
			Expect(stats.Sent).To(HaveLen(1))
			Expect(stats.ReceivedPoints).To(Equal(1))

			history, err := service.ListForUser(ctx, employeeID)
			Expect(err).NotTo(HaveOccurred())
			Expect(history).To(HaveLen(3))
		})

		It("validates the admin status filter", func() {
			bad := thanks.Status("archived")
			_, _, err := service.ListAll(ctx, thanks.ListFilter{Status: &bad})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("admin override", func() {
		var (
			admin    = &auth.User{ID: adminID, Role: "admin"}
			manager  = &auth.User{ID: managerID, Role: "manager"}
			approved *thanks.Thanks
		)

		BeforeEach(func() {
			t, err := service.Create(ctx, senderID, thanks.CreateThanksDTO{ToID: employeeID, Message: "x"})
			Expect(err).NotTo(HaveOccurred())
			approved, err = service.Approve(ctx, t.ID, managerID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("is admin only", func() {
			_, err := service.AdminUpdate(ctx, manager, approved.ID, thanks.AdminUpdateDTO{Message: ptr("y")})
			Expect(err).To(MatchError(apperrors.ErrForbidden))
			Expect(service.AdminDelete(ctx, manager, approved.ID)).To(MatchError(apperrors.ErrForbidden))
		})

		It("can move a finalized record back to pending and clears approval fields", func() {
			t, err := service.AdminUpdate(ctx, admin, approved.ID, thanks.AdminUpdateDTO{Status: ptr(thanks.StatusPending)})
			Expect(err).NotTo(HaveOccurred())
			Expect(t.Status).To(Equal(thanks.StatusPending))
			Expect(t.ApprovedByID).To(BeNil())
			Expect(t.ApprovedAt).To(BeNil())
			Expect(publisher.types()).To(ContainElement(events.EventTypeThanksOverridden))
		})

		It("requires a reason when flipping to rejected", func() {
			_, err := service.AdminUpdate(ctx, admin, approved.ID, thanks.AdminUpdateDTO{Status: ptr(thanks.StatusRejected)})
			Expect(err).To(MatchError(apperrors.ErrMissingReason))

			t, err := service.AdminUpdate(ctx, admin, approved.ID, thanks.AdminUpdateDTO{Status: ptr(thanks.StatusRejected), RejectReason: ptr("spam")})
			Expect(err).NotTo(HaveOccurred())
			Expect(*t.ApprovedByID).To(Equal(adminID))
			Expect(*t.RejectReason).To(Equal("spam"))
		})

		It("keeps sender and recipient distinct", func() {
			_, err := service.AdminUpdate(ctx, admin, approved.ID, thanks.AdminUpdateDTO{ToID: ptr(senderID)})
			Expect(err).To(MatchError(apperrors.ErrInvalidRecipient))
		})

		It("deletes records", func() {
			Expect(service.AdminDelete(ctx, admin, approved.ID)).To(Succeed())
			_, err := service.GetByID(ctx, approved.ID)
			Expect(err).To(MatchError(apperrors.ErrThanksNotFound))
		})
	})
})

func ptr[T any](v T) *T { return &v }
