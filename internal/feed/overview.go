package feed

import (
	"context"
	"log/slog"

	"github.com/ButyrinIA/postboard/internal/models"
)

// OverviewSource loads the side data of the dashboard.
type OverviewSource interface {
	Groups(ctx context.Context) ([]models.Group, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

type GroupsResult struct {
	Groups []models.Group
	Err    error
}

type StatsResult struct {
	Stats *models.Stats
	Err   error
}

func FetchGroups(ctx context.Context, src OverviewSource) GroupsResult {
	groups, err := src.Groups(ctx)
	return GroupsResult{Groups: groups, Err: err}
}

func FetchStats(ctx context.Context, src OverviewSource) StatsResult {
	stats, err := src.Stats(ctx)
	return StatsResult{Stats: stats, Err: err}
}

// Overview keeps the group choices and stat tiles. Failed loads are logged
// and leave the previous values in place.
type Overview struct {
	groups []models.Group
	stats  *models.Stats
}

func (o *Overview) Groups() []models.Group { return o.groups }

// Stats returns nil until the first successful load.
func (o *Overview) Stats() *models.Stats { return o.stats }

func (o *Overview) ApplyGroups(r GroupsResult) {
	if r.Err != nil {
		slog.Warn("failed to fetch groups", "error", r.Err)
		return
	}
	o.groups = r.Groups
}

func (o *Overview) ApplyStats(r StatsResult) {
	if r.Err != nil || r.Stats == nil {
		slog.Warn("failed to fetch stats", "error", r.Err)
		return
	}
	o.stats = r.Stats
}
