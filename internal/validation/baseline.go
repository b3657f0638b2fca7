package validation

// BaselinePredictor is the fixed linear comparison point: a dot product of a
// small hand-set weight vector over raw features plus a bias. It exists only
// to answer "does the scoring model beat a naive linear guess".
type BaselinePredictor struct {
	Weights []float64
	Bias    float64
}

// Predict evaluates the linear baseline. Features beyond the weight vector
// are ignored; missing features contribute nothing.
func (b BaselinePredictor) Predict(raw []float64) float64 {
	v := b.Bias
	for i, w := range b.Weights {
		if i >= len(raw) {
			break
		}
		v += w * raw[i]
	}
	return v
}

// DefaultBaseline returns the reference baseline used in validation reports.
// The weights were hand-set once against the historical dataset and are
// deliberately never tuned.
func DefaultBaseline() BaselinePredictor {
	return BaselinePredictor{
		Weights: []float64{0.3, 0.25, 0.2, 0.15, 0.1},
		Bias:    0,
	}
}

// improvementPct is the relative RMSE improvement of the model over the
// baseline, in percent. Returns 0 when the baseline RMSE is zero.
func improvementPct(baselineRMSE, modelRMSE float64) float64 {
	if baselineRMSE == 0 {
		return 0
	}
	return (baselineRMSE - modelRMSE) / baselineRMSE * 100
}
