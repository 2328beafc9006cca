package user_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	apperrors "github.com/frahmantamala/recognition-portal/internal"
	"github.com/frahmantamala/recognition-portal/internal/auth"
	"github.com/frahmantamala/recognition-portal/internal/core/clock"
	"github.com/frahmantamala/recognition-portal/internal/user"
	"github.com/frahmantamala/recognition-portal/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

type mockUserRepository struct {
	users  map[int64]*user.User
	nextID int64
	err    error
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: map[int64]*user.User{}, nextID: 1}
}

func (m *mockUserRepository) add(u *user.User) *user.User {
	u.ID = m.nextID
	m.nextID++
	m.users[u.ID] = u
	return u
}

func (m *mockUserRepository) Create(ctx context.Context, u *user.User) error {
	if m.err != nil {
		return m.err
	}
	m.add(u)
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	if u, ok := m.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (m *mockUserRepository) Taken(ctx context.Context, username, email string, excludeID int64) (bool, bool, error) {
	var un, em bool
	for _, u := range m.users {
		if u.ID == excludeID {
			continue
		}
		if username != "" && u.Username == username {
			un = true
		}
		if email != "" && strings.EqualFold(u.Email, email) {
			em = true
		}
	}
	return un, em, nil
}

func (m *mockUserRepository) ListAll(ctx context.Context) ([]*user.User, error) {
	out := make([]*user.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockUserRepository) ListByManager(ctx context.Context, managerID int64) ([]*user.User, error) {
	var out []*user.User
	all, _ := m.ListAll(ctx)
	for _, u := range all {
		if u.ReportsTo(managerID) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockUserRepository) ListIDsByManager(ctx context.Context, managerID int64) ([]int64, error) {
	reports, _ := m.ListByManager(ctx, managerID)
	ids := make([]int64, len(reports))
	for i, u := range reports {
		ids[i] = u.ID
	}
	return ids, nil
}

func (m *mockUserRepository) UpdateRole(ctx context.Context, id int64, role user.Role) error {
	m.users[id].Role = role
	return nil
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, id int64, c user.ProfileChanges) error {
	u := m.users[id]
	if c.Name != nil {
		u.Name = *c.Name
	}
	if c.Email != nil {
		u.Email = *c.Email
	}
	if c.Title != nil || c.ClearTitle {
		u.Title = c.Title
	}
	if c.Department != nil || c.ClearDept {
		u.Department = c.Department
	}
	return nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	m.users[id].PasswordHash = hash
	return nil
}

func strPtr(s string) *string { return &s }

var _ = Describe("UserService", func() {
	var (
		ctx     context.Context
		repo    *mockUserRepository
		service *user.Service
		admin   *user.User
		manager *user.User
		emp     *user.User
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = newMockUserRepository()
		service = user.NewService(repo, bcrypt.MinCost, clock.Fixed(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)), logger.Discard())

		admin = repo.add(&user.User{Username: "A001", Email: "a@example.com", Name: "Admin", Role: user.RoleAdmin})
		manager = repo.add(&user.User{Username: "M001", Email: "m@example.com", Name: "Manager", Role: user.RoleManager})
		emp = repo.add(&user.User{Username: "E001", Email: "e@example.com", Name: "Emp", Role: user.RoleEmployee, ManagerID: &manager.ID})
	})

	Describe("Register", func() {
		It("creates an employee with a hashed password and normalized email", func() {
			u, err := service.Register(ctx, user.RegisterDTO{
				Username: " E002 ", Email: " New@Example.COM ", Name: "New", Password: "password123",
				Title: strPtr("  "), ManagerID: &manager.ID,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Username).To(Equal("E002"))
			Expect(u.Email).To(Equal("new@example.com"))
			Expect(u.Role).To(Equal(user.RoleEmployee))
			Expect(u.Title).To(BeNil())
			Expect(auth.VerifyPassword(u.PasswordHash, "password123")).To(Succeed())
		})

		It("rejects duplicate usernames and emails with field details", func() {
			_, err := service.Register(ctx, user.RegisterDTO{Username: "E001", Email: "E@example.com", Name: "x", Password: "password123"})
			Expect(errors.Is(err, apperrors.ErrDuplicateKey)).To(BeTrue())
			appErr, _ := apperrors.IsAppError(err)
			Expect(appErr.Details.(apperrors.ValidationErrors).Errors).To(HaveLen(2))
		})

		It("rejects a manager that does not exist", func() {
			missing := int64(404)
			_, err := service.Register(ctx, user.RegisterDTO{Username: "E009", Email: "n@example.com", Name: "x", Password: "password123", ManagerID: &missing})
			Expect(errors.Is(err, apperrors.ErrUserNotFound)).To(BeTrue())
		})

		It("validates the payload", func() {
			_, err := service.Register(ctx, user.RegisterDTO{Username: "E009", Email: "not-an-email", Name: "x", Password: "short"})
			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodeValidationFailed))
		})
	})

	Describe("ListDirectReports", func() {
		It("lets a manager read their own reports", func() {
			reports, err := service.ListDirectReports(ctx, &auth.User{ID: manager.ID, Role: "manager"}, manager.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reports).To(HaveLen(1))
			Expect(reports[0].ID).To(Equal(emp.ID))
		})

		It("forbids employees", func() {
			_, err := service.ListDirectReports(ctx, &auth.User{ID: emp.ID, Role: "employee"}, manager.ID)
			Expect(err).To(MatchError(apperrors.ErrForbidden))
		})

		It("lets admins read anyone and reports unknown managers", func() {
			_, err := service.ListDirectReports(ctx, &auth.User{ID: admin.ID, Role: "admin"}, 404)
			Expect(err).To(MatchError(apperrors.ErrUserNotFound))
		})
	})

	Describe("UpdateRole", func() {
		It("promotes an employee", func() {
			u, err := service.UpdateRole(ctx, emp.ID, user.RoleManager)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Role).To(Equal(user.RoleManager))
			Expect(repo.users[emp.ID].Role).To(Equal(user.RoleManager))
		})

		It("never grants admin", func() {
			_, err := service.UpdateRole(ctx, emp.ID, user.RoleAdmin)
			Expect(err).To(MatchError(apperrors.ErrInvalidRole))
		})

		It("never touches admins", func() {
			_, err := service.UpdateRole(ctx, admin.ID, user.RoleEmployee)
			Expect(err).To(MatchError(apperrors.ErrAdminImmutable))
		})
	})

	Describe("UpdateProfile", func() {
		It("updates and clears fields", func() {
			repo.users[emp.ID].Title = strPtr("Old")
			u, err := service.UpdateProfile(ctx, emp.ID, user.UpdateProfileDTO{Name: strPtr("Renamed"), Title: strPtr("")})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Name).To(Equal("Renamed"))
			Expect(u.Title).To(BeNil())
		})

		It("rejects an email owned by someone else", func() {
			_, err := service.UpdateProfile(ctx, emp.ID, user.UpdateProfileDTO{Email: strPtr("M@example.com")})
			Expect(errors.Is(err, apperrors.ErrDuplicateKey)).To(BeTrue())
		})

		It("rejects admin targets", func() {
			_, err := service.UpdateProfile(ctx, admin.ID, user.UpdateProfileDTO{Name: strPtr("x")})
			Expect(err).To(MatchError(apperrors.ErrAdminImmutable))
		})

		It("rejects empty updates", func() {
			_, err := service.UpdateProfile(ctx, emp.ID, user.UpdateProfileDTO{})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("passwords", func() {
		BeforeEach(func() {
			hash, _ := auth.HashPassword("original-pass", bcrypt.MinCost)
			repo.users[emp.ID].PasswordHash = hash
		})

		It("changes the password after verifying the current one", func() {
			Expect(service.ChangePassword(ctx, emp.ID, user.ChangePasswordDTO{CurrentPassword: "original-pass", NewPassword: "brand-new-pass"})).To(Succeed())
			Expect(auth.VerifyPassword(repo.users[emp.ID].PasswordHash, "brand-new-pass")).To(Succeed())
		})

		It("rejects a wrong current password", func() {
			err := service.ChangePassword(ctx, emp.ID, user.ChangePasswordDTO{CurrentPassword: "nope", NewPassword: "brand-new-pass"})
			Expect(err).To(MatchError(apperrors.ErrInvalidCredentials))
		})

		It("lets admins reset non-admin passwords only", func() {
			Expect(service.ResetPassword(ctx, emp.ID, user.ResetPasswordDTO{NewPassword: "reset-pass-1"})).To(Succeed())
			Expect(service.ResetPassword(ctx, admin.ID, user.ResetPasswordDTO{NewPassword: "reset-pass-1"})).To(MatchError(apperrors.ErrAdminImmutable))
		})
	})
})
