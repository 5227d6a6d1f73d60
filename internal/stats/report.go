package stats

import (
	"context"
	"time"

	"github.com/verte-zerg/tuidict/internal/model"
	"github.com/verte-zerg/tuidict/internal/store"
)

// Options selects the attempts included in a report.
type Options struct {
	VideoID string
	Since   *time.Time
	Last    int
	Window  int
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Videos    []model.VideoAggregate
	Attempts  []model.Attempt
	WeakLines []LineAggregate
	Names     map[string]string
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, opts Options) (Report, error) {
	attempts, err := st.ListAttempts(ctx, opts.VideoID, opts.Since)
	if err != nil {
		return Report{}, err
	}
	if opts.Last > 0 && len(attempts) > opts.Last {
		attempts = attempts[len(attempts)-opts.Last:]
	}
	all, err := st.VideoAggregates(ctx)
	if err != nil {
		return Report{}, err
	}

	names := make(map[string]string, len(all))
	for _, v := range all {
		names[v.VideoID] = v.DisplayName
	}
	return Report{
		Videos:    aggregateVideos(attempts, names),
		Attempts:  attempts,
		WeakLines: SelectWeakLines(attempts, 10, 2),
		Names:     names,
	}, nil
}

// aggregateVideos sums the selected attempts so filters apply to the table.
func aggregateVideos(attempts []model.Attempt, names map[string]string) []model.VideoAggregate {
	index := map[string]int{}
	var out []model.VideoAggregate
	for _, a := range attempts {
		i, ok := index[a.VideoID]
		if !ok {
			i = len(out)
			index[a.VideoID] = i
			out = append(out, model.VideoAggregate{VideoID: a.VideoID, DisplayName: names[a.VideoID]})
		}
		out[i].Attempts++
		out[i].CorrectWords += a.CorrectWords
		out[i].TotalWords += a.TotalWords
		if a.At.After(out[i].LastAt) {
			out[i].LastAt = a.At
		}
	}
	return out
}
