package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/tbburden/internal/dataset"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultCooksThreshold is the usual rule-of-thumb cutoff for influential rows.
const DefaultCooksThreshold = 1.0

const intercept = "(Intercept)"

// maxCondition bounds the condition number of XᵀX; beyond it the design is
// treated as rank deficient.
const maxCondition = 1e14

// Coefficient is one row of a coefficient table.
type Coefficient struct {
	Term     string
	Estimate float64
	StdError float64
	TValue   float64
	PValue   float64
	CILower  float64 // 95%
	CIUpper  float64
}

// OLSFit is an ordinary least squares fit with an intercept.
type OLSFit struct {
	Formula          string
	N                int
	P                int // parameters, including the intercept
	DF               int // residual degrees of freedom
	Coefficients     []Coefficient
	RSquared         float64
	AdjRSquared      float64
	ResidualStdError float64
	FStatistic       float64
	FPValue          float64

	Observed      []float64
	Fitted        []float64
	Residuals     []float64
	Leverage      []float64
	CooksDistance []float64
}

// Influential names a row removed by the Cook's distance filter.
type Influential struct {
	Country       string  `json:"country"`
	CooksDistance float64 `json:"cooks_distance"`
}

// Regression is the two-pass mortality model.
type Regression struct {
	Initial   *OLSFit
	Final     *OLSFit
	Threshold float64
	Removed   []Influential
	Used      []dataset.Record
}

// SimpleFit is a bivariate least squares line.
type SimpleFit struct {
	Formula   string
	N         int
	Intercept float64
	Slope     float64
	RSquared  float64
	X, Y      []float64
}

var mortalityPredictors = []Indicator{
	{dataset.ColIncidence, func(r dataset.Record) float64 { return r.Incidence }},
	{dataset.ColHIVPercent, func(r dataset.Record) float64 { return r.HIVPercent }},
	{dataset.ColPrevalence, func(r dataset.Record) float64 { return r.Prevalence }},
}

func mortalityModel(records []dataset.Record) (string, []float64, [][]float64, []string) {
	y := column(records, func(r dataset.Record) float64 { return r.Mortality })
	xs := make([][]float64, len(mortalityPredictors))
	names := make([]string, len(mortalityPredictors))
	for i, p := range mortalityPredictors {
		xs[i] = column(records, p.Value)
		names[i] = p.Name
	}
	formula := dataset.ColMortality + " ~ " + strings.Join(names, " + ")
	return formula, y, xs, names
}

// FitRegression fits mortality on incidence, HIV% and prevalence, drops rows
// whose Cook's distance exceeds threshold, and refits on the remainder.
// Rows with an undefined distance are never dropped.
func FitRegression(records []dataset.Record, threshold float64) (*Regression, error) {
	if threshold <= 0 {
		threshold = DefaultCooksThreshold
	}
	formula, y, xs, names := mortalityModel(records)
	initial, err := FitOLS(formula, y, xs, names)
	if err != nil {
		return nil, err
	}
	reg := &Regression{Initial: initial, Threshold: threshold}
	used := make([]dataset.Record, 0, len(records))
	for i, r := range records {
		if d := initial.CooksDistance[i]; d > threshold {
			reg.Removed = append(reg.Removed, Influential{Country: r.Country, CooksDistance: d})
			continue
		}
		used = append(used, r)
	}
	reg.Used = used
	formula, y, xs, names = mortalityModel(used)
	final, err := FitOLS(formula, y, xs, names)
	if err != nil {
		var mfe *ModelFitError
		if errors.As(err, &mfe) {
			mfe.Cause = fmt.Sprintf("refit after removing %d influential rows: %s", len(reg.Removed), mfe.Cause)
		}
		return nil, err
	}
	reg.Final = final
	return reg, nil
}

// FitOLS regresses y on the columns xs plus an intercept.
func FitOLS(formula string, y []float64, xs [][]float64, names []string) (*OLSFit, error) {
	n, p := len(y), len(xs)+1
	if n <= p {
		return nil, &ModelFitError{Model: formula, Cause: fmt.Sprintf("%d rows is not enough for %d parameters", n, p)}
	}
	data := make([]float64, 0, n*p)
	for i := 0; i < n; i++ {
		data = append(data, 1)
		for _, col := range xs {
			if len(col) != n {
				return nil, &ModelFitError{Model: formula, Cause: "predictor length mismatch"}
			}
			data = append(data, col[i])
		}
	}
	x := mat.NewDense(n, p, data)
	yv := mat.NewVecDense(n, append([]float64(nil), y...))

	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())
	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok || chol.Cond() > maxCondition {
		return nil, &ModelFitError{Model: formula, Cause: "singular design matrix"}
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, &ModelFitError{Model: formula, Cause: "invert normal equations", Err: err}
	}
	var xty, beta mat.VecDense
	xty.MulVec(x.T(), yv)
	if err := chol.SolveVecTo(&beta, &xty); err != nil {
		return nil, &ModelFitError{Model: formula, Cause: "solve normal equations", Err: err}
	}

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)
	fit := &OLSFit{
		Formula:       formula,
		N:             n,
		P:             p,
		DF:            n - p,
		Observed:      append([]float64(nil), y...),
		Fitted:        make([]float64, n),
		Residuals:     make([]float64, n),
		Leverage:      make([]float64, n),
		CooksDistance: make([]float64, n),
	}
	yMean := stat.Mean(y, nil)
	var rss, tss float64
	for i := 0; i < n; i++ {
		fit.Fitted[i] = fitted.AtVec(i)
		fit.Residuals[i] = y[i] - fit.Fitted[i]
		rss += fit.Residuals[i] * fit.Residuals[i]
		tss += (y[i] - yMean) * (y[i] - yMean)
		row := x.RowView(i)
		fit.Leverage[i] = mat.Inner(row, &inv, row)
	}
	df := float64(fit.DF)
	s2 := rss / df
	fit.ResidualStdError = math.Sqrt(s2)
	fit.RSquared = 1 - rss/tss
	fit.AdjRSquared = 1 - (1-fit.RSquared)*float64(n-1)/df
	d1 := float64(p - 1)
	fit.FStatistic = ((tss - rss) / d1) / s2
	fit.FPValue = 1 - distuv.F{D1: d1, D2: df}.CDF(fit.FStatistic)

	for i := 0; i < n; i++ {
		h := fit.Leverage[i]
		e := fit.Residuals[i]
		fit.CooksDistance[i] = (e * e / (float64(p) * s2)) * h / ((1 - h) * (1 - h))
	}

	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	tCrit := t.Quantile(0.975)
	terms := append([]string{intercept}, names...)
	for j, term := range terms {
		est := beta.AtVec(j)
		se := math.Sqrt(s2 * inv.At(j, j))
		tv := est / se
		fit.Coefficients = append(fit.Coefficients, Coefficient{
			Term:     term,
			Estimate: est,
			StdError: se,
			TValue:   tv,
			PValue:   2 * (1 - t.CDF(math.Abs(tv))),
			CILower:  est - tCrit*se,
			CIUpper:  est + tCrit*se,
		})
	}
	return fit, nil
}

// Coefficient returns the row for term, if present.
func (f *OLSFit) Coefficient(term string) (Coefficient, bool) {
	for _, c := range f.Coefficients {
		if c.Term == term {
			return c, true
		}
	}
	return Coefficient{}, false
}

// FitSimple fits mortality on HIV% alone over all cleaned rows.
func FitSimple(records []dataset.Record) (*SimpleFit, error) {
	formula := dataset.ColMortality + " ~ " + dataset.ColHIVPercent
	x := column(records, func(r dataset.Record) float64 { return r.HIVPercent })
	y := column(records, func(r dataset.Record) float64 { return r.Mortality })
	if len(x) < 2 {
		return nil, &ModelFitError{Model: formula, Cause: fmt.Sprintf("%d rows is not enough for 2 parameters", len(x))}
	}
	if stat.Variance(x, nil) == 0 {
		return nil, &ModelFitError{Model: formula, Cause: "predictor has zero variance"}
	}
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	return &SimpleFit{
		Formula:   formula,
		N:         len(x),
		Intercept: alpha,
		Slope:     beta,
		RSquared:  stat.RSquared(x, y, nil, alpha, beta),
		X:         x,
		Y:         y,
	}, nil
}

// MarshalJSON writes undefined statistics as null.
func (c Coefficient) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Term     string   `json:"term"`
		Estimate *float64 `json:"estimate"`
		StdError *float64 `json:"std_error"`
		TValue   *float64 `json:"t_value"`
		PValue   *float64 `json:"p_value"`
		CILower  *float64 `json:"ci_lower"`
		CIUpper  *float64 `json:"ci_upper"`
	}{c.Term, finite(c.Estimate), finite(c.StdError), finite(c.TValue), finite(c.PValue), finite(c.CILower), finite(c.CIUpper)})
}

// MarshalJSON omits per-row vectors and writes undefined statistics as null.
func (f *OLSFit) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Formula          string        `json:"formula"`
		N                int           `json:"n"`
		P                int           `json:"p"`
		DF               int           `json:"df"`
		Coefficients     []Coefficient `json:"coefficients"`
		RSquared         *float64      `json:"r_squared"`
		AdjRSquared      *float64      `json:"adj_r_squared"`
		ResidualStdError *float64      `json:"residual_std_error"`
		FStatistic       *float64      `json:"f_statistic"`
		FPValue          *float64      `json:"f_p_value"`
	}{f.Formula, f.N, f.P, f.DF, f.Coefficients, finite(f.RSquared), finite(f.AdjRSquared),
		finite(f.ResidualStdError), finite(f.FStatistic), finite(f.FPValue)})
}

// MarshalJSON summarises both passes without the per-row data.
func (r *Regression) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Initial   *OLSFit       `json:"initial"`
		Final     *OLSFit       `json:"final"`
		Threshold float64       `json:"cooks_threshold"`
		Removed   []Influential `json:"removed"`
		UsedRows  int           `json:"used_rows"`
	}{r.Initial, r.Final, r.Threshold, r.Removed, len(r.Used)})
}

// MarshalJSON omits the plotted points.
func (s *SimpleFit) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Formula   string   `json:"formula"`
		N         int      `json:"n"`
		Intercept *float64 `json:"intercept"`
		Slope     *float64 `json:"slope"`
		RSquared  *float64 `json:"r_squared"`
	}{s.Formula, s.N, finite(s.Intercept), finite(s.Slope), finite(s.RSquared)})
}
