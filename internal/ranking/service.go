package ranking

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/frahmantamala/recognition-portal/internal/core/clock"
)

// Repository sums approved points per recipient since a cutoff.
type Repository interface {
	TotalsSince(ctx context.Context, cutoff time.Time) ([]Entry, error)
}

// Leaderboard is the result of one rankings call.
type Leaderboard struct {
	Period  Period    `json:"period"`
	Since   time.Time `json:"since"`
	Entries []Entry   `json:"entries"`
}

type Service struct {
	repo   Repository
	clock  clock.Clock
	logger *slog.Logger
}

func NewService(repo Repository, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{repo: repo, clock: clk, logger: logger}
}

// Rankings recomputes the leaderboard for p from approved thanks. Ties are
// ordered by ascending user id.
func (s *Service) Rankings(ctx context.Context, p Period) (*Leaderboard, error) {
	if _, err := ParsePeriod(string(p)); err != nil {
		return nil, err
	}

	cutoff := Cutoff(s.clock.Now().UTC(), p)
	entries, err := s.repo.TotalsSince(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to compute rankings", "error", err, "period", p)
		return nil, err
	}
	if entries == nil {
		entries = []Entry{}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].UserID < entries[j].UserID
	})

	s.logger.Debug("rankings computed", "period", p, "since", cutoff, "entries", len(entries))
	return &Leaderboard{Period: p, Since: cutoff, Entries: entries}, nil
}
