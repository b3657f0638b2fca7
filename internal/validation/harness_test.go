package validation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stationscout/siteval-cli/internal/scoring"
)

func newTestScorer(t *testing.T) *scoring.Scorer {
	t.Helper()
	s, err := scoring.NewScorer(scoring.DefaultWeights())
	require.NoError(t, err)
	return s
}

// syntheticSites builds n sites whose recorded revenue equals the model's
// own scaled prediction, so validation against them should be near-perfect.
func syntheticSites(t *testing.T, scorer *scoring.Scorer, n int, scale float64) []LabeledSite {
	t.Helper()
	sites := make([]LabeledSite, n)
	regions := []string{"asia", "europe", "americas"}
	for i := range sites {
		f := scoring.SiteFeatures{
			PopulationDensity:   scoring.Float64(float64(50 + i*400)),
			GDPPerCapita:        scoring.Float64(float64(5_000 + i*4_000)),
			FiberConnectivity:   scoring.Float64(0.2 + 0.035*float64(i%20)),
			MaritimeTraffic:     scoring.Float64(float64(i * 7_000)),
			PoliticalStability:  scoring.Float64(0.5 + 0.02*float64(i%20)),
			InternetPenetration: scoring.Float64(0.3 + 0.03*float64(i%20)),
		}
		score := scorer.Score(f).OverallScore
		sites[i] = LabeledSite{
			SiteID:        fmt.Sprintf("site-%03d", i),
			Region:        regions[i%len(regions)],
			Category:      "teleport",
			ActualRevenue: score * scale,
			Features:      f,
			RawFeatures:   []float64{score, 1.0},
		}
	}
	return sites
}

func TestValidate_EmptyDatasetIsLoudError(t *testing.T) {
	h := NewHarness(newTestScorer(t), DefaultBaseline(), Config{})
	_, err := h.Validate(nil, TargetRevenue)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty dataset")
}

func TestValidate_SelfConsistentDataset(t *testing.T) {
	scorer := newTestScorer(t)
	h := NewHarness(scorer, DefaultBaseline(), Config{})
	sites := syntheticSites(t, scorer, 50, DefaultScale().Revenue)

	s, err := h.Validate(sites, TargetRevenue)
	require.NoError(t, err)

	assert.Equal(t, 50, s.TotalSites)
	assert.Equal(t, 10, s.TestCount)
	assert.Equal(t, 40, s.TrainCount)
	assert.Len(t, s.Records, 10)

	// Actuals were generated from the model's own predictions.
	assert.InDelta(t, 0, s.Model.RMSE, 1e-6)
	assert.Greater(t, s.Model.R2, 0.99)
	assert.InDelta(t, 1.0, s.Model.Pearson, 1e-6)
	assert.InDelta(t, 100.0, s.MeanAccuracy, 1e-6)
	assert.InDelta(t, 100.0, s.TierPct90, 1e-9)
}

func TestValidate_Deterministic(t *testing.T) {
	scorer := newTestScorer(t)
	h := NewHarness(scorer, DefaultBaseline(), Config{Seed: 7})
	sites := syntheticSites(t, scorer, 30, DefaultScale().Revenue)

	a, err := h.Validate(sites, TargetRevenue)
	require.NoError(t, err)
	b, err := h.Validate(sites, TargetRevenue)
	require.NoError(t, err)

	assert.Equal(t, a.Model, b.Model)
	require.Equal(t, len(a.Records), len(b.Records))
	for i := range a.Records {
		assert.Equal(t, a.Records[i].SiteID, b.Records[i].SiteID)
	}
}

func TestValidate_StratifiedBundles(t *testing.T) {
	scorer := newTestScorer(t)
	h := NewHarness(scorer, DefaultBaseline(), Config{})
	sites := syntheticSites(t, scorer, 60, DefaultScale().Revenue)

	s, err := h.Validate(sites, TargetRevenue)
	require.NoError(t, err)

	require.NotEmpty(t, s.ByRegion)
	total := 0
	for region, m := range s.ByRegion {
		assert.Contains(t, []string{"asia", "europe", "americas"}, region)
		total += m.N
	}
	assert.Equal(t, s.TestCount, total, "region strata partition the test set")

	require.Contains(t, s.ByCategory, "teleport")
	assert.Equal(t, s.TestCount, s.ByCategory["teleport"].N)

	require.NotEmpty(t, s.ByConfidence)
	confTotal := 0
	for _, m := range s.ByConfidence {
		confTotal += m.N
	}
	assert.Equal(t, s.TestCount, confTotal)
}

func TestValidate_FeatureAudit(t *testing.T) {
	scorer := newTestScorer(t)
	h := NewHarness(scorer, DefaultBaseline(), Config{
		FeatureNames: []string{"model_score", "constant"},
	})
	sites := syntheticSites(t, scorer, 40, DefaultScale().Revenue)

	s, err := h.Validate(sites, TargetRevenue)
	require.NoError(t, err)
	require.Len(t, s.FeatureAudit, 2)

	// Sorted by |correlation|: the score column correlates perfectly, the
	// constant column has zero variance and is flagged weak.
	assert.Equal(t, "model_score", s.FeatureAudit[0].Feature)
	assert.InDelta(t, 1.0, s.FeatureAudit[0].Correlation, 1e-6)
	assert.False(t, s.FeatureAudit[0].Weak)

	assert.Equal(t, "constant", s.FeatureAudit[1].Feature)
	assert.True(t, s.FeatureAudit[1].Weak)
}

func TestValidate_BaselineComparison(t *testing.T) {
	scorer := newTestScorer(t)
	// Baseline weight 1.0 on the model-score column reproduces the model
	// exactly; a deliberately bad baseline shows positive improvement.
	sites := syntheticSites(t, scorer, 40, DefaultScale().Revenue)

	perfect := NewHarness(scorer, BaselinePredictor{Weights: []float64{1.0}}, Config{})
	s, err := perfect.Validate(sites, TargetRevenue)
	require.NoError(t, err)
	assert.InDelta(t, 0, s.Baseline.RMSE, 1e-6)

	bad := NewHarness(scorer, BaselinePredictor{Weights: []float64{0}, Bias: 0.9}, Config{})
	s, err = bad.Validate(sites, TargetRevenue)
	require.NoError(t, err)
	assert.Greater(t, s.Baseline.RMSE, s.Model.RMSE)
	assert.Positive(t, s.ImprovementPct)
}

func TestValidate_TargetMetricSelection(t *testing.T) {
	scorer := newTestScorer(t)
	h := NewHarness(scorer, DefaultBaseline(), Config{})

	sites := syntheticSites(t, scorer, 20, DefaultScale().Revenue)
	for i := range sites {
		score := scorer.Score(sites[i].Features).OverallScore
		sites[i].ActualMargin = score * DefaultScale().Margin
	}

	s, err := h.Validate(sites, TargetMargin)
	require.NoError(t, err)
	assert.Equal(t, TargetMargin, s.Target)
	assert.InDelta(t, 0, s.Model.RMSE, 1e-9)
}

func TestMetricScale_For(t *testing.T) {
	scale := DefaultScale()
	assert.Equal(t, 5_000_000.0, scale.For(TargetRevenue))
	assert.Equal(t, 1_500_000.0, scale.For(TargetProfit))
	assert.Equal(t, 30.0, scale.For(TargetMargin))
}
