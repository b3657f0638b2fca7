package validation

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FoldResult is one held-out fold's metric bundle.
type FoldResult struct {
	Fold      int     `json:"fold"`
	TestCount int     `json:"test_count"`
	Metrics   Metrics `json:"metrics"`
}

// CrossValidationReport aggregates per-fold bundles. Mean/StdDev/Min/Max are
// component-wise over folds; Consistency is 100 − 100·σ/μ of the fold RMSEs,
// clamped at 0 (100 = identical folds).
type CrossValidationReport struct {
	Target      TargetMetric `json:"target"`
	K           int          `json:"k"`
	Folds       []FoldResult `json:"folds"`
	Mean        Metrics      `json:"mean"`
	StdDev      Metrics      `json:"std_dev"`
	Min         Metrics      `json:"min"`
	Max         Metrics      `json:"max"`
	Consistency float64      `json:"consistency"`
}

// CrossValidate shuffles sites with the configured seed, partitions them
// into k contiguous folds, holds each fold out once, and aggregates the
// per-fold metric bundles. Folds are evaluated in parallel; results land in
// a pre-sized slice so the report is deterministic.
func (h *Harness) CrossValidate(ctx context.Context, sites []LabeledSite, k int, target TargetMetric) (*CrossValidationReport, error) {
	if len(sites) == 0 {
		return nil, eris.New("validation: empty dataset")
	}
	if k < 2 {
		return nil, eris.Errorf("validation: k=%d, need at least 2 folds", k)
	}
	if k > len(sites) {
		return nil, eris.Errorf("validation: k=%d exceeds dataset size %d", k, len(sites))
	}

	shuffled := shuffledCopy(sites, h.cfg.Seed)
	bounds := foldBounds(len(shuffled), k)
	scale := h.cfg.Scale.For(target)

	folds := make([]FoldResult, k)
	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(k)
	for f := 0; f < k; f++ {
		eg.Go(func() error {
			lo, hi := bounds[f][0], bounds[f][1]
			test := shuffled[lo:hi]

			predicted := make([]float64, len(test))
			actuals := make([]float64, len(test))
			for i, site := range test {
				predicted[i] = h.scorer.Score(site.Features).OverallScore * scale
				actuals[i] = actualFor(site, target)
			}
			m, err := computeMetrics(predicted, actuals)
			if err != nil {
				return eris.Wrapf(err, "validation: fold %d", f)
			}
			folds[f] = FoldResult{Fold: f, TestCount: len(test), Metrics: m}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	report := &CrossValidationReport{Target: target, K: k, Folds: folds}
	aggregate(report)

	zap.L().Info("validation: cross-validation complete",
		zap.Int("k", k),
		zap.Float64("mean_rmse", report.Mean.RMSE),
		zap.Float64("consistency", report.Consistency),
	)
	return report, nil
}

// foldBounds splits n items into k contiguous [lo,hi) ranges whose sizes
// differ by at most one and sum to n.
func foldBounds(n, k int) [][2]int {
	bounds := make([][2]int, k)
	base := n / k
	extra := n % k
	lo := 0
	for f := 0; f < k; f++ {
		size := base
		if f < extra {
			size++
		}
		bounds[f] = [2]int{lo, lo + size}
		lo += size
	}
	return bounds
}

func aggregate(r *CrossValidationReport) {
	pick := func(get func(Metrics) float64) []float64 {
		vals := make([]float64, len(r.Folds))
		for i, f := range r.Folds {
			vals[i] = get(f.Metrics)
		}
		return vals
	}
	fields := []struct {
		get func(Metrics) float64
		set func(*Metrics, float64)
	}{
		{func(m Metrics) float64 { return m.RMSE }, func(m *Metrics, v float64) { m.RMSE = v }},
		{func(m Metrics) float64 { return m.MAE }, func(m *Metrics, v float64) { m.MAE = v }},
		{func(m Metrics) float64 { return m.MAPE }, func(m *Metrics, v float64) { m.MAPE = v }},
		{func(m Metrics) float64 { return m.R2 }, func(m *Metrics, v float64) { m.R2 = v }},
		{func(m Metrics) float64 { return m.Pearson }, func(m *Metrics, v float64) { m.Pearson = v }},
	}
	for _, fld := range fields {
		vals := pick(fld.get)
		fld.set(&r.Mean, meanOf(vals))
		fld.set(&r.StdDev, stddevOf(vals))
		fld.set(&r.Min, minOf(vals))
		fld.set(&r.Max, maxOf(vals))
	}

	rmses := pick(func(m Metrics) float64 { return m.RMSE })
	mean := meanOf(rmses)
	if mean > 0 {
		r.Consistency = 100 - 100*stddevOf(rmses)/mean
		if r.Consistency < 0 {
			r.Consistency = 0
		}
	}
}

func minOf(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	m := vals[0]
	for _, v := range vals[1:] {
		m = math.Min(m, v)
	}
	return m
}

func maxOf(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	m := vals[0]
	for _, v := range vals[1:] {
		m = math.Max(m, v)
	}
	return m
}
