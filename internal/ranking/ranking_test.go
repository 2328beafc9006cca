package ranking_test

import (
	"time"

	apperrors "github.com/frahmantamala/recognition-portal/internal"
	"github.com/frahmantamala/recognition-portal/internal/ranking"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 15, 30, 0, 0, time.UTC)
}

var _ = Describe("Cutoff", func() {
	DescribeTable("calendar aware windows",
		func(now time.Time, p ranking.Period, want time.Time) {
			Expect(ranking.Cutoff(now, p)).To(Equal(want))
		},
		Entry("week", at(2024, time.March, 10), ranking.PeriodWeek, at(2024, time.March, 3)),
		Entry("week across a month", at(2024, time.March, 2), ranking.PeriodWeek, at(2024, time.February, 24)),
		Entry("month same day", at(2024, time.June, 15), ranking.PeriodMonth, at(2024, time.May, 15)),
		Entry("month clamps to shorter month", at(2024, time.March, 31), ranking.PeriodMonth, at(2024, time.February, 29)),
		Entry("month clamps in a common year", at(2023, time.March, 31), ranking.PeriodMonth, at(2023, time.February, 28)),
		Entry("month across a year", at(2024, time.January, 15), ranking.PeriodMonth, at(2023, time.December, 15)),
		Entry("quarter clamps", at(2024, time.May, 31), ranking.PeriodQuarter, at(2024, time.February, 29)),
		Entry("year", at(2024, time.June, 1), ranking.PeriodYear, at(2023, time.June, 1)),
		Entry("year from a leap day", at(2024, time.February, 29), ranking.PeriodYear, at(2023, time.February, 28)),
	)
})

var _ = Describe("ParsePeriod", func() {
	It("accepts the four periods case insensitively", func() {
		for _, raw := range []string{"week", "Month", " quarter ", "YEAR"} {
			_, err := ranking.ParsePeriod(raw)
			Expect(err).NotTo(HaveOccurred())
		}
	})

	It("accepts every listed period, each reaching further back than the last", func() {
		now := at(2024, time.June, 15)
		prev := now
		for _, p := range ranking.Periods {
			parsed, err := ranking.ParsePeriod(string(p))
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(p))

			cutoff := ranking.Cutoff(now, p)
			Expect(cutoff).To(BeTemporally("<", prev))
			prev = cutoff
		}
	})

	It("rejects anything else and names the allowed periods", func() {
		_, err := ranking.ParsePeriod("decade")
		Expect(err).To(MatchError(apperrors.ErrInvalidPeriod))

		appErr, ok := apperrors.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Details).To(HaveKeyWithValue("allowed", ranking.Periods))
	})
})
