package app

import (
	"sort"

	"review_insights/internal/domain"
)

// Aggregate averages sentiment score per (bank, rating). Reviews without a
// score are left out of the mean, and a group with no scored review is not
// emitted. Output is sorted by bank, then rating.
func Aggregate(rs []domain.Review) []domain.Aggregate {
	type acc struct {
		sum float64
		n   int
	}
	groups := map[domain.GroupKey]*acc{}
	for _, r := range rs {
		if r.Rating == nil || r.Sentiment == nil {
			continue
		}
		k := domain.GroupKey{Bank: r.BankName, Rating: *r.Rating}
		a, ok := groups[k]
		if !ok {
			a = &acc{}
			groups[k] = a
		}
		a.sum += r.Sentiment.Score
		a.n++
	}

	out := make([]domain.Aggregate, 0, len(groups))
	for k, a := range groups {
		out = append(out, domain.Aggregate{GroupKey: k, MeanScore: a.sum / float64(a.n), Count: a.n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Bank != out[j].Bank {
			return out[i].Bank < out[j].Bank
		}
		return out[i].Rating < out[j].Rating
	})
	return out
}
