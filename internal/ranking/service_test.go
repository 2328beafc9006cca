package ranking_test

import (
	"context"
	"time"

	"github.com/frahmantamala/recognition-portal/internal/core/clock"
	"github.com/frahmantamala/recognition-portal/internal/ranking"
	"github.com/frahmantamala/recognition-portal/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type approvedThanks struct {
	toID       int64
	points     int64
	approvedAt time.Time
}

// fakeRepository applies the same window filter as the SQL query.
type fakeRepository struct {
	records []approvedThanks
	cutoffs []time.Time
}

func (f *fakeRepository) TotalsSince(ctx context.Context, cutoff time.Time) ([]ranking.Entry, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	totals := map[int64]int64{}
	var order []int64
	for _, r := range f.records {
		if r.approvedAt.Before(cutoff) {
			continue
		}
		if _, ok := totals[r.toID]; !ok {
			order = append(order, r.toID)
		}
		totals[r.toID] += r.points
	}
	var out []ranking.Entry
	for _, id := range order {
		out = append(out, ranking.Entry{UserID: id, Points: totals[id]})
	}
	return out, nil
}

var _ = Describe("Service", func() {
	var (
		ctx  context.Context
		now  time.Time
		repo *fakeRepository
		svc  *ranking.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)
		repo = &fakeRepository{}
		svc = ranking.NewService(repo, clock.Fixed(now), logger.Discard())
	})

	It("counts a record approved 6 days ago but not one approved 8 days ago", func() {
		repo.records = []approvedThanks{
			{toID: 1, points: 1, approvedAt: now.AddDate(0, 0, -8)},
			{toID: 2, points: 1, approvedAt: now.AddDate(0, 0, -6)},
		}

		board, err := svc.Rankings(ctx, ranking.PeriodWeek)
		Expect(err).NotTo(HaveOccurred())
		Expect(board.Entries).To(Equal([]ranking.Entry{{UserID: 2, Points: 1}}))
		Expect(board.Since).To(Equal(now.AddDate(0, 0, -7)))
	})

	It("sorts by points descending and breaks ties by user id", func() {
		repo.records = []approvedThanks{
			{toID: 9, points: 1, approvedAt: now},
			{toID: 4, points: 2, approvedAt: now},
			{toID: 7, points: 1, approvedAt: now},
			{toID: 9, points: 1, approvedAt: now},
		}

		board, err := svc.Rankings(ctx, ranking.PeriodMonth)
		Expect(err).NotTo(HaveOccurred())
		Expect(board.Entries).To(Equal([]ranking.Entry{
			{UserID: 4, Points: 2},
			{UserID: 9, Points: 2},
			{UserID: 7, Points: 1},
		}))
	})

	It("returns an empty leaderboard rather than nil", func() {
		board, err := svc.Rankings(ctx, ranking.PeriodYear)
		Expect(err).NotTo(HaveOccurred())
		Expect(board.Entries).NotTo(BeNil())
		Expect(board.Entries).To(BeEmpty())
	})

	It("passes the calendar cutoff to the repository", func() {
		_, err := svc.Rankings(ctx, ranking.PeriodQuarter)
		Expect(err).NotTo(HaveOccurred())
		Expect(repo.cutoffs).To(ConsistOf(time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)))
	})

	It("rejects unknown periods", func() {
		_, err := svc.Rankings(ctx, ranking.Period("fortnight"))
		Expect(err).To(HaveOccurred())
		Expect(repo.cutoffs).To(BeEmpty())
	})
})
