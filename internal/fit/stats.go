package fit

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/acetylkin/internal/optim"
	"github.com/san-kum/acetylkin/internal/params"
)

// CorrelationCutoff is the smallest |r| listed in a report.
const CorrelationCutoff = 0.1

type Correlation struct {
	A, B string
	R    float64
}

// Stats are the goodness-of-fit figures of a finished minimization.
type Stats struct {
	Method   string
	Success  bool
	Message  string
	NFev     int
	NData    int
	NVarys   int
	NFree    int
	ChiSqr   float64
	RedChi   float64
	AIC      float64
	BIC      float64
	RSquared float64

	// Free lists the varied parameters in covariance order. Covariance is
	// nil when JᵀJ is singular.
	Free         []string
	Covariance   *mat.SymDense
	Correlations []Correlation
}

// Summarize computes fit statistics from res and writes standard errors
// into fitted. observed is the flattened data the residual was taken
// against.
func Summarize(res *optim.Result, fitted params.Set, free []string, observed []float64) *Stats {
	s := &Stats{
		Method:  res.Method,
		Success: res.Success,
		Message: res.Message,
		NFev:    res.NFev,
		NData:   len(res.Residual),
		NVarys:  len(free),
		Free:    append([]string(nil), free...),
	}
	s.NFree = s.NData - s.NVarys
	s.ChiSqr = floats.Dot(res.Residual, res.Residual)
	s.RedChi = s.ChiSqr / math.Max(1, float64(s.NFree))

	n := float64(s.NData)
	neg2LogLikel := n * math.Log(math.Max(s.ChiSqr, math.SmallestNonzeroFloat64)/n)
	s.AIC = neg2LogLikel + 2*float64(s.NVarys)
	s.BIC = neg2LogLikel + math.Log(n)*float64(s.NVarys)

	if len(observed) == len(res.Residual) && len(observed) > 0 {
		simulated := make([]float64, len(observed))
		floats.AddTo(simulated, observed, res.Residual)
		s.RSquared = stat.RSquaredFrom(simulated, observed, nil)
	}

	for _, name := range free {
		p := fitted[name]
		p.Stderr = 0
		fitted[name] = p
	}
	if res.Jacobian == nil || s.NFree <= 0 {
		return s
	}

	cov, ok := covariance(res.Jacobian, s.RedChi)
	if !ok {
		return s
	}
	s.Covariance = cov

	stderr := make([]float64, len(free))
	for i, name := range free {
		stderr[i] = math.Sqrt(math.Max(cov.At(i, i), 0))
		p := fitted[name]
		p.Stderr = stderr[i]
		fitted[name] = p
	}

	for i := range free {
		for j := i + 1; j < len(free); j++ {
			if stderr[i] == 0 || stderr[j] == 0 {
				continue
			}
			r := cov.At(i, j) / (stderr[i] * stderr[j])
			if math.Abs(r) > CorrelationCutoff {
				s.Correlations = append(s.Correlations, Correlation{A: free[i], B: free[j], R: r})
			}
		}
	}
	sort.SliceStable(s.Correlations, func(i, j int) bool {
		return math.Abs(s.Correlations[i].R) > math.Abs(s.Correlations[j].R)
	})
	return s
}

// covariance returns (JᵀJ)⁻¹·redchi.
func covariance(jac *mat.Dense, redchi float64) (*mat.SymDense, bool) {
	_, n := jac.Dims()
	jtj := mat.NewSymDense(n, nil)
	jtj.SymOuterK(1, jac.T())

	var chol mat.Cholesky
	if !chol.Factorize(jtj) {
		return nil, false
	}
	inv := mat.NewSymDense(n, nil)
	if err := chol.InverseTo(inv); err != nil {
		return nil, false
	}
	inv.ScaleSym(redchi, inv)
	return inv, true
}

// Report renders the fit statistics, the parameter table and the
// correlations above CorrelationCutoff.
func (s *Stats) Report(p params.Set) string {
	var b strings.Builder

	b.WriteString("[[Fit Statistics]]\n")
	fmt.Fprintf(&b, "    # fitting method   = %s\n", s.Method)
	fmt.Fprintf(&b, "    # function evals   = %d\n", s.NFev)
	fmt.Fprintf(&b, "    # data points      = %d\n", s.NData)
	fmt.Fprintf(&b, "    # variables        = %d\n", s.NVarys)
	fmt.Fprintf(&b, "    chi-square         = %.8g\n", s.ChiSqr)
	fmt.Fprintf(&b, "    reduced chi-square = %.8g\n", s.RedChi)
	fmt.Fprintf(&b, "    Akaike info crit   = %.8g\n", s.AIC)
	fmt.Fprintf(&b, "    Bayesian info crit = %.8g\n", s.BIC)
	fmt.Fprintf(&b, "    R-squared          = %.8g\n", s.RSquared)
	if !s.Success {
		fmt.Fprintf(&b, "##  Warning: fit did not converge: %s\n", s.Message)
	}
	if s.Covariance == nil && s.NVarys > 0 {
		b.WriteString("##  Warning: uncertainties could not be estimated\n")
	}

	b.WriteString("[[Variables]]\n")
	names := p.Names()
	width := 0
	for _, name := range names {
		width = max(width, len(name))
	}
	for _, name := range names {
		par := p[name]
		label := fmt.Sprintf("%s:", name)
		switch {
		case par.Fixed:
			fmt.Fprintf(&b, "    %-*s  %.8g (fixed)\n", width+1, label, par.Value)
		case par.Stderr > 0 && par.Value != 0:
			fmt.Fprintf(&b, "    %-*s  %.8g +/- %.8g (%.2f%%) (init = %g)\n",
				width+1, label, par.Value, par.Stderr, 100*par.Stderr/math.Abs(par.Value), par.Init)
		case par.Stderr > 0:
			fmt.Fprintf(&b, "    %-*s  %.8g +/- %.8g (init = %g)\n",
				width+1, label, par.Value, par.Stderr, par.Init)
		default:
			fmt.Fprintf(&b, "    %-*s  %.8g (init = %g)\n", width+1, label, par.Value, par.Init)
		}
	}

	if len(s.Correlations) > 0 {
		fmt.Fprintf(&b, "[[Correlations]] (unreported correlations are < %.3f)\n", CorrelationCutoff)
		for _, c := range s.Correlations {
			fmt.Fprintf(&b, "    C(%s, %s) = %+.4f\n", c.A, c.B, c.R)
		}
	}
	return b.String()
}
