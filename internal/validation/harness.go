package validation

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/stationscout/siteval-cli/internal/scoring"
)

// TargetMetric selects which recorded outcome predictions are compared to.
type TargetMetric string

const (
	TargetRevenue TargetMetric = "revenue"
	TargetProfit  TargetMetric = "profit"
	TargetMargin  TargetMetric = "margin"
)

// LabeledSite is one site with a recorded outcome. RawFeatures feeds the
// baseline predictor and the feature audit; Features feeds the scoring model.
type LabeledSite struct {
	SiteID        string                `json:"site_id"`
	Region        string                `json:"region,omitempty"`
	Category      string                `json:"category,omitempty"`
	ActualRevenue float64               `json:"actual_revenue,omitempty"`
	ActualProfit  float64               `json:"actual_profit,omitempty"`
	ActualMargin  float64               `json:"actual_margin,omitempty"`
	Features      scoring.SiteFeatures  `json:"features"`
	RawFeatures   []float64             `json:"raw_features,omitempty"`
}

// MetricScale converts a model score in [0,1] into real-world units per
// target metric. The factors are a modeling assumption, so they are
// injectable rather than baked in.
type MetricScale struct {
	Revenue float64 `json:"revenue"`
	Profit  float64 `json:"profit"`
	Margin  float64 `json:"margin"`
}

// DefaultScale returns the stock scale factors: a perfect-score site maps to
// $5M revenue, $1.5M profit, 30% margin.
func DefaultScale() MetricScale {
	return MetricScale{Revenue: 5_000_000, Profit: 1_500_000, Margin: 30}
}

// For returns the scale factor for a target metric.
func (s MetricScale) For(target TargetMetric) float64 {
	switch target {
	case TargetProfit:
		return s.Profit
	case TargetMargin:
		return s.Margin
	default:
		return s.Revenue
	}
}

// Config tunes the harness. Zero values select defaults.
type Config struct {
	Scale        MetricScale
	Seed         int64    // shuffle seed, default 42
	TestFraction float64  // held-out fraction, default 0.2
	FeatureNames []string // names for RawFeatures columns in the audit
}

// Record is one per-site test result.
type Record struct {
	SiteID     string  `json:"site_id"`
	Predicted  float64 `json:"predicted"`
	Actual     float64 `json:"actual"`
	AbsError   float64 `json:"abs_error"`
	PctError   float64 `json:"pct_error"` // 0 when actual is 0
	Confidence float64 `json:"confidence"`
}

// FeatureCorrelation is one feature-audit entry.
type FeatureCorrelation struct {
	Feature     string  `json:"feature"`
	Correlation float64 `json:"correlation"`
	Weak        bool    `json:"weak"`
}

// Summary is the full validation report for one run.
type Summary struct {
	Target         TargetMetric `json:"target"`
	GeneratedAt    time.Time    `json:"generated_at"`
	TotalSites     int          `json:"total_sites"`
	TrainCount     int          `json:"train_count"`
	TestCount      int          `json:"test_count"`
	Model          Metrics      `json:"model"`
	Baseline       Metrics      `json:"baseline"`
	ImprovementPct float64      `json:"improvement_pct"`

	MeanAccuracy float64    `json:"mean_accuracy"` // percent
	AccuracyCI95 [2]float64 `json:"accuracy_ci95"`
	TierPct70    float64    `json:"tier_pct_70"` // % of sites at ≥70% accuracy
	TierPct80    float64    `json:"tier_pct_80"`
	TierPct90    float64    `json:"tier_pct_90"`

	Records      []Record           `json:"records"`
	ByRegion     map[string]Metrics `json:"by_region,omitempty"`
	ByCategory   map[string]Metrics `json:"by_category,omitempty"`
	ByConfidence map[string]Metrics `json:"by_confidence,omitempty"`

	FeatureAudit    []FeatureCorrelation `json:"feature_audit,omitempty"`
	Recommendations []string             `json:"recommendations,omitempty"`
}

// Confidence buckets for stratified reporting.
const (
	confidenceHighCut   = 0.75
	confidenceMediumCut = 0.4
)

// weakCorrelationCut flags features the outcome barely responds to.
const weakCorrelationCut = 0.1

// Harness runs validation passes of one scorer against labeled outcomes.
type Harness struct {
	scorer   *scoring.Scorer
	baseline BaselinePredictor
	cfg      Config
}

// NewHarness builds a harness around a scorer. cfg zero values are filled
// with defaults.
func NewHarness(scorer *scoring.Scorer, baseline BaselinePredictor, cfg Config) *Harness {
	if cfg.Scale == (MetricScale{}) {
		cfg.Scale = DefaultScale()
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.TestFraction <= 0 || cfg.TestFraction >= 1 {
		cfg.TestFraction = 0.2
	}
	return &Harness{scorer: scorer, baseline: baseline, cfg: cfg}
}

// Validate shuffles sites with the configured seed, holds out the test
// fraction, and reports the full metric bundle over the held-out set. The
// model has no fit step, so "train" sites are simply excluded from the
// report. An empty dataset is a loud error.
func (h *Harness) Validate(sites []LabeledSite, target TargetMetric) (*Summary, error) {
	if len(sites) == 0 {
		return nil, eris.New("validation: empty dataset")
	}

	shuffled := shuffledCopy(sites, h.cfg.Seed)
	testN := int(math.Round(float64(len(shuffled)) * h.cfg.TestFraction))
	if testN < 1 {
		testN = 1
	}
	test := shuffled[len(shuffled)-testN:]

	scale := h.cfg.Scale.For(target)
	records := make([]Record, len(test))
	predicted := make([]float64, len(test))
	basePred := make([]float64, len(test))
	actuals := make([]float64, len(test))
	for i, site := range test {
		score := h.scorer.Score(site.Features)
		pred := score.OverallScore * scale
		actual := actualFor(site, target)

		predicted[i] = pred
		basePred[i] = h.baseline.Predict(site.RawFeatures) * scale
		actuals[i] = actual

		rec := Record{
			SiteID:     site.SiteID,
			Predicted:  pred,
			Actual:     actual,
			AbsError:   math.Abs(pred - actual),
			Confidence: score.Confidence,
		}
		if actual != 0 {
			rec.PctError = math.Abs((pred - actual) / actual) * 100
		}
		records[i] = rec
	}

	model, err := computeMetrics(predicted, actuals)
	if err != nil {
		return nil, err
	}
	baseline, err := computeMetrics(basePred, actuals)
	if err != nil {
		return nil, err
	}

	s := &Summary{
		Target:         target,
		GeneratedAt:    time.Now().UTC(),
		TotalSites:     len(sites),
		TrainCount:     len(sites) - testN,
		TestCount:      testN,
		Model:          model,
		Baseline:       baseline,
		ImprovementPct: improvementPct(baseline.RMSE, model.RMSE),
		Records:        records,
	}
	h.fillAccuracy(s, records)
	s.ByRegion = stratify(test, predicted, actuals, func(site LabeledSite) string { return site.Region })
	s.ByCategory = stratify(test, predicted, actuals, func(site LabeledSite) string { return site.Category })
	s.ByConfidence = stratifyRecords(records, predicted, actuals)
	s.FeatureAudit = h.auditFeatures(sites, target)
	s.Recommendations = recommend(s)

	zap.L().Info("validation: run complete",
		zap.String("target", string(target)),
		zap.Int("test_sites", testN),
		zap.Float64("rmse", model.RMSE),
		zap.Float64("r2", model.R2),
		zap.Float64("improvement_pct", s.ImprovementPct),
	)
	return s, nil
}

// fillAccuracy derives per-site accuracy percentages and the tier stats.
// Accuracy is 100 − |pct error|, floored at 0; sites with a zero actual are
// excluded (accuracy is undefined there).
func (h *Harness) fillAccuracy(s *Summary, records []Record) {
	var accs []float64
	var at70, at80, at90 int
	for _, r := range records {
		if r.Actual == 0 {
			continue
		}
		acc := 100 - r.PctError
		if acc < 0 {
			acc = 0
		}
		accs = append(accs, acc)
		if acc >= 70 {
			at70++
		}
		if acc >= 80 {
			at80++
		}
		if acc >= 90 {
			at90++
		}
	}
	if len(accs) == 0 {
		return
	}
	n := float64(len(accs))
	s.MeanAccuracy = meanOf(accs)
	margin := 1.96 * stddevOf(accs) / math.Sqrt(n)
	s.AccuracyCI95 = [2]float64{s.MeanAccuracy - margin, s.MeanAccuracy + margin}
	s.TierPct70 = float64(at70) / n * 100
	s.TierPct80 = float64(at80) / n * 100
	s.TierPct90 = float64(at90) / n * 100
}

// stratify recomputes the metric bundle per key. Empty or degenerate subsets
// yield the zero bundle rather than an error.
func stratify(test []LabeledSite, predicted, actuals []float64, keyOf func(LabeledSite) string) map[string]Metrics {
	groups := make(map[string][]int)
	for i, site := range test {
		key := keyOf(site)
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], i)
	}
	if len(groups) == 0 {
		return nil
	}
	out := make(map[string]Metrics, len(groups))
	for key, idx := range groups {
		p := make([]float64, len(idx))
		a := make([]float64, len(idx))
		for j, i := range idx {
			p[j] = predicted[i]
			a[j] = actuals[i]
		}
		m, err := computeMetrics(p, a)
		if err != nil {
			m = Metrics{}
		}
		out[key] = m
	}
	return out
}

func stratifyRecords(records []Record, predicted, actuals []float64) map[string]Metrics {
	keyOf := func(conf float64) string {
		switch {
		case conf >= confidenceHighCut:
			return "high"
		case conf >= confidenceMediumCut:
			return "medium"
		default:
			return "low"
		}
	}
	groups := make(map[string][]int)
	for i, r := range records {
		key := keyOf(r.Confidence)
		groups[key] = append(groups[key], i)
	}
	out := make(map[string]Metrics, len(groups))
	for key, idx := range groups {
		p := make([]float64, len(idx))
		a := make([]float64, len(idx))
		for j, i := range idx {
			p[j] = predicted[i]
			a[j] = actuals[i]
		}
		m, err := computeMetrics(p, a)
		if err != nil {
			m = Metrics{}
		}
		out[key] = m
	}
	return out
}

// auditFeatures correlates each raw feature column against the actual
// outcome over the FULL dataset and flags weak columns.
func (h *Harness) auditFeatures(sites []LabeledSite, target TargetMetric) []FeatureCorrelation {
	cols := 0
	for _, s := range sites {
		if len(s.RawFeatures) > cols {
			cols = len(s.RawFeatures)
		}
	}
	if cols == 0 {
		return nil
	}

	actuals := make([]float64, len(sites))
	for i, s := range sites {
		actuals[i] = actualFor(s, target)
	}

	audit := make([]FeatureCorrelation, 0, cols)
	for c := 0; c < cols; c++ {
		col := make([]float64, len(sites))
		for i, s := range sites {
			if c < len(s.RawFeatures) {
				col[i] = s.RawFeatures[c]
			}
		}
		corr := pearson(col, actuals)
		name := fmt.Sprintf("feature_%d", c)
		if c < len(h.cfg.FeatureNames) {
			name = h.cfg.FeatureNames[c]
		}
		audit = append(audit, FeatureCorrelation{
			Feature:     name,
			Correlation: corr,
			Weak:        math.Abs(corr) < weakCorrelationCut,
		})
	}
	sort.SliceStable(audit, func(i, j int) bool {
		return math.Abs(audit[i].Correlation) > math.Abs(audit[j].Correlation)
	})
	return audit
}

// recommend derives free-text guidance from the finished summary.
func recommend(s *Summary) []string {
	var recs []string
	if s.Model.R2 < 0.5 {
		recs = append(recs, "Model explains less than half the outcome variance: recalibrate category weights")
	}
	if s.ImprovementPct < 0 {
		recs = append(recs, "Linear baseline outperforms the model: review factor transforms")
	}
	if s.TierPct70 < 70 {
		recs = append(recs, "Fewer than 70% of sites reach the 70% accuracy tier: widen the labeled dataset")
	}
	weak := 0
	for _, f := range s.FeatureAudit {
		if f.Weak {
			weak++
		}
	}
	if weak > 0 {
		recs = append(recs, fmt.Sprintf("%d feature(s) show negligible outcome correlation: candidates for removal", weak))
	}
	return recs
}

func actualFor(site LabeledSite, target TargetMetric) float64 {
	switch target {
	case TargetProfit:
		return site.ActualProfit
	case TargetMargin:
		return site.ActualMargin
	default:
		return site.ActualRevenue
	}
}

// shuffledCopy returns a seeded Fisher-Yates shuffle of sites, leaving the
// input untouched. The explicit seed keeps splits reproducible across runs.
func shuffledCopy(sites []LabeledSite, seed int64) []LabeledSite {
	out := make([]LabeledSite, len(sites))
	copy(out, sites)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
