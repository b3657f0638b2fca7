// Package validation backtests the scoring model against labeled site
// outcomes: error metrics, baseline comparison, k-fold cross-validation,
// stratified reporting, and drift monitoring.
package validation

import (
	"math"

	"github.com/rotisserie/eris"
)

// Metrics is one bundle of error metrics over a prediction set.
//
// Degenerate inputs are mapped to documented sentinels instead of NaN:
// R2 and Pearson are 0 when the actuals have zero variance, MAPE is 0 when
// every actual is exactly zero.
type Metrics struct {
	RMSE    float64 `json:"rmse"`
	MAE     float64 `json:"mae"`
	MAPE    float64 `json:"mape"`
	R2      float64 `json:"r2"`
	Pearson float64 `json:"pearson"`
	N       int     `json:"n"`
}

// computeMetrics evaluates predictions against actuals. The slices must be
// the same non-zero length.
func computeMetrics(predicted, actual []float64) (Metrics, error) {
	if len(predicted) == 0 {
		return Metrics{}, eris.New("validation: empty prediction set")
	}
	if len(predicted) != len(actual) {
		return Metrics{}, eris.Errorf("validation: %d predictions vs %d actuals", len(predicted), len(actual))
	}

	n := float64(len(actual))
	var sumSq, sumAbs, sumPct float64
	pctN := 0
	for i := range actual {
		diff := predicted[i] - actual[i]
		sumSq += diff * diff
		sumAbs += math.Abs(diff)
		if actual[i] != 0 {
			sumPct += math.Abs(diff / actual[i])
			pctN++
		}
	}

	m := Metrics{
		RMSE: math.Sqrt(sumSq / n),
		MAE:  sumAbs / n,
		N:    len(actual),
	}
	if pctN > 0 {
		m.MAPE = sumPct / float64(pctN) * 100
	}

	mean := meanOf(actual)
	var ssTot float64
	for _, a := range actual {
		d := a - mean
		ssTot += d * d
	}
	if ssTot > 0 {
		m.R2 = 1 - sumSq/ssTot
	}
	m.Pearson = pearson(predicted, actual)
	return m, nil
}

// pearson returns the sample correlation coefficient, or 0 when either
// series has zero variance.
func pearson(xs, ys []float64) float64 {
	if len(xs) != len(ys) || len(xs) == 0 {
		return 0
	}
	mx := meanOf(xs)
	my := meanOf(ys)
	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - mx
		dy := ys[i] - my
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}

func meanOf(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func stddevOf(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	mean := meanOf(vals)
	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)-1))
}
