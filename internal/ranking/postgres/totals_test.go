package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/recognition-portal/internal/core/datamodel/testdb"
	thanksDatamodel "github.com/frahmantamala/recognition-portal/internal/core/datamodel/thanks"
	userDatamodel "github.com/frahmantamala/recognition-portal/internal/core/datamodel/user"
	"github.com/frahmantamala/recognition-portal/internal/ranking"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("RankingRepository on sqlite", func() {
	var (
		ctx      context.Context
		db       *gorm.DB
		repo     *RankingRepository
		now      time.Time
		sender   int64
		approver int64
		ana      int64
		ben      int64
		cleo     int64
	)

	seedUser := func(username string) int64 {
		row := &userDatamodel.User{Username: username, Email: username + "@example.com", Name: username, PasswordHash: "x", Role: "employee"}
		Expect(db.Create(row).Error).To(Succeed())
		return row.ID
	}

	seedThanks := func(to int64, status string, approvedAt *time.Time, points int) {
		row := &thanksDatamodel.Thanks{
			FromID:    sender,
			ToID:      to,
			Message:   "thanks",
			CreatedAt: now.AddDate(0, 0, -30),
			Status:    status,
			Points:    points,
		}
		if approvedAt != nil {
			row.ApprovedByID = &approver
			row.ApprovedAt = approvedAt
		}
		if status == "rejected" {
			reason := "not this time"
			row.RejectReason = &reason
		}
		Expect(db.Create(row).Error).To(Succeed())
	}

	daysAgo := func(n int) *time.Time {
		t := now.AddDate(0, 0, -n)
		return &t
	}

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

		db, err = testdb.Open()
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		repo = NewRankingRepository(sqlx.NewDb(sqlDB, "sqlite3"))

		sender = seedUser("sender")
		approver = seedUser("approver")
		ana = seedUser("ana")
		ben = seedUser("ben")
		cleo = seedUser("cleo")
	})

	AfterEach(func() {
		Expect(testdb.Close(db)).To(Succeed())
	})

	It("sums only approved points inside the window", func() {
		seedThanks(ana, "approved", daysAgo(6), 1)
		seedThanks(ana, "approved", daysAgo(1), 2)
		seedThanks(ana, "approved", daysAgo(8), 5)
		seedThanks(ben, "approved", daysAgo(3), 1)
		seedThanks(ben, "rejected", daysAgo(2), 4)
		seedThanks(cleo, "pending", nil, 1)

		entries, err := repo.TotalsSince(ctx, ranking.Cutoff(now, ranking.PeriodWeek))
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(Equal([]ranking.Entry{
			{UserID: ana, Points: 3},
			{UserID: ben, Points: 1},
		}))
	})

	It("breaks ties by ascending user id", func() {
		seedThanks(ben, "approved", daysAgo(2), 1)
		seedThanks(ana, "approved", daysAgo(2), 1)

		entries, err := repo.TotalsSince(ctx, ranking.Cutoff(now, ranking.PeriodWeek))
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(Equal([]ranking.Entry{
			{UserID: ana, Points: 1},
			{UserID: ben, Points: 1},
		}))
	})

	It("returns nothing when no approvals fall in the window", func() {
		seedThanks(ana, "approved", daysAgo(40), 1)

		entries, err := repo.TotalsSince(ctx, ranking.Cutoff(now, ranking.PeriodMonth))
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty())
	})
})
