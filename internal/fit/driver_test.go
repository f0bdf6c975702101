package fit_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/acetylkin/internal/dynamo"
	"github.com/san-kum/acetylkin/internal/fit"
	"github.com/san-kum/acetylkin/internal/integrators"
	"github.com/san-kum/acetylkin/internal/kinetics"
	"github.com/san-kum/acetylkin/internal/measure"
	"github.com/san-kum/acetylkin/internal/params"
)

var tight = integrators.Options{RTol: 1e-10, ATol: 1e-12}

func mustLookup(name string) *kinetics.Network {
	net, err := kinetics.Lookup(name)
	Expect(err).NotTo(HaveOccurred())
	return net
}

func trajectory(net *kinetics.Network, p params.Set, y0 dynamo.State, times []float64) *dynamo.Trajectory {
	sys, err := net.Bind(p)
	Expect(err).NotTo(HaveOccurred())
	traj, err := integrators.SolveIVP(sys, [2]float64{times[0], times[len(times)-1]}, y0, times, tight)
	Expect(err).NotTo(HaveOccurred())
	Expect(traj.Success()).To(BeTrue())
	return traj
}

// labelTable writes an acetylcoa trajectory as label rows (times in
// seconds), split over two replicates that average to the trajectory.
func labelTable(traj *dynamo.Trajectory, carrier, cells string) []measure.LabelRow {
	var rows []measure.LabelRow
	for i, t := range traj.Times {
		for rep, offset := range []float64{-0.01, 0.01} {
			rows = append(rows,
				measure.LabelRow{Carrier: carrier, Cells: cells, State: measure.StateUnlabeled,
					Time: t * measure.LabelTimeScale, Replicate: rep + 1, RelativeLabel: traj.States[i][0] + offset},
				measure.LabelRow{Carrier: carrier, Cells: cells, State: measure.StateLabeled,
					Time: t * measure.LabelTimeScale, Replicate: rep + 1, RelativeLabel: traj.States[i][1] - offset},
			)
		}
	}
	return rows
}

func areaTable(traj *dynamo.Trajectory, columns []string, carrier, cells string) []measure.AreaRow {
	var rows []measure.AreaRow
	for i, t := range traj.Times {
		for j, c := range columns {
			rows = append(rows, measure.AreaRow{
				Carrier: carrier, Cells: cells, Replicate: 1,
				Time: t, Combination: c, RelArea: traj.States[i][j],
			})
		}
	}
	return rows
}

var _ = Describe("Fit", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("acetylcoa", func() {
		var (
			net    *kinetics.Network
			labels []measure.LabelRow
			times  []float64
		)

		BeforeEach(func() {
			net = mustLookup(kinetics.AcetylCoA)
			times = make([]float64, 20)
			for i := range times {
				times[i] = 10 * float64(i) / 19
			}
			truth := params.NewSet(params.New("k0", 1), params.New("k1", 1), params.New("k_de", 0.1))
			labels = labelTable(trajectory(net, truth, dynamo.State{0, 0}, times), "DMSO", "TSCctrl")
		})

		It("recovers the generating rate constants", func() {
			start := params.NewSet(params.New("k0", 0.5), params.New("k1", 0.5), params.New("k_de", 0.5))

			out, err := fit.Fit(ctx, fit.Request{
				Model:   net,
				Params:  start,
				Labels:  labels,
				Columns: []string{measure.ColumnUnlabeled, measure.ColumnLabeled},
				Solver:  tight,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Result.Success).To(BeTrue(), out.Result.Message)

			Expect(out.Params["k0"].Value).To(BeNumerically("~", 1, 1e-3))
			Expect(out.Params["k1"].Value).To(BeNumerically("~", 1, 1e-3))
			Expect(out.Params["k_de"].Value).To(BeNumerically("~", 0.1, 1e-4))
			Expect(out.Stats.ChiSqr).To(BeNumerically("<", 1e-8))

			By("leaving the caller's parameter set untouched")
			Expect(start["k0"].Value).To(Equal(0.5))

			By("re-simulating on a uniform grid over the observed span")
			Expect(out.Trajectory.Len()).To(Equal(fit.DefaultPoints))
			Expect(out.Trajectory.Times[0]).To(Equal(0.0))
			Expect(out.Trajectory.Times[fit.DefaultPoints-1]).To(Equal(times[19]))

			table := out.Table()
			Expect(table.Columns).To(Equal([]string{"nolabel", "label"}))
			rows, cols := table.Data.Dims()
			Expect(rows).To(Equal(fit.DefaultPoints))
			Expect(cols).To(Equal(2))

			Expect(out.Report()).To(ContainSubstring("[[Variables]]"))
			Expect(out.Report()).To(ContainSubstring("k_de:"))
			Expect(out.Condition.String()).To(Equal("DMSO/TSCctrl"))
		})

		It("keeps fixed parameters at their value", func() {
			start := params.NewSet(params.New("k0", 0.5), params.New("k1", 0.5), params.New("k_de", 0.1))
			kde := start["k_de"]
			kde.Fixed = true
			start["k_de"] = kde

			out, err := fit.Fit(ctx, fit.Request{
				Model:   net,
				Params:  start,
				Labels:  labels,
				Columns: []string{measure.ColumnUnlabeled, measure.ColumnLabeled},
				Solver:  tight,
				Method:  "leastsq",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Params["k_de"].Value).To(Equal(0.1))
			Expect(out.Stats.NVarys).To(Equal(2))
			Expect(out.Params["k0"].Value).To(BeNumerically("~", 1, 1e-4))
		})

		It("fails on an unknown condition", func() {
			_, err := fit.Fit(ctx, fit.Request{
				Model:   net,
				Params:  params.NewSet(params.New("k0", 1), params.New("k1", 1), params.New("k_de", 1)),
				Labels:  labels,
				Carrier: "SAHA",
				Columns: []string{measure.ColumnUnlabeled, measure.ColumnLabeled},
			})
			Expect(err).To(MatchError(measure.ErrNoData))
		})

		It("fails early on a missing rate constant", func() {
			_, err := fit.Fit(ctx, fit.Request{
				Model:   net,
				Params:  params.NewSet(params.New("k0", 1), params.New("k_de", 1)),
				Labels:  labels,
				Columns: []string{measure.ColumnUnlabeled, measure.ColumnLabeled},
			})
			Expect(err).To(MatchError(dynamo.ErrMissingParameter))
		})

		It("rejects a column set that does not match the model", func() {
			_, err := fit.Fit(ctx, fit.Request{
				Model:  net,
				Params: params.NewSet(params.New("k0", 1), params.New("k1", 1), params.New("k_de", 1)),
				Labels: labels,
				Areas: []measure.AreaRow{
					{Carrier: "DMSO", Cells: "TSCctrl", Replicate: 1, Time: 0, Combination: "non_ac", RelArea: 1},
				},
				Columns: []string{measure.ColumnUnlabeled, measure.ColumnLabeled, "non_ac"},
			})
			Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
		})
	})

	Describe("acetylation_2sites_uncorr", func() {
		It("fits the binding constants from the combination columns alone", func() {
			net := mustLookup(kinetics.TwoSitesUncorr)
			truth := params.NewSet(
				params.New("k_a1", 0.3), params.New("k_d1", 0.1),
				params.New("k_a2", 0.2), params.New("k_d2", 0.05),
			)
			times := make([]float64, 16)
			for i := range times {
				times[i] = 2 * float64(i)
			}
			traj := trajectory(net, truth, dynamo.State{1, 0, 0, 0, 0}, times)
			areas := areaTable(traj, measure.DefaultColumns[2:], "DMSO", "TSCctrl")

			start := params.NewSet(
				params.Bounded("k_a1", 0.2, 0, 10), params.Bounded("k_d1", 0.2, 0, 10),
				params.Bounded("k_a2", 0.1, 0, 10), params.Bounded("k_d2", 0.1, 0, 10),
			)
			out, err := fit.Fit(ctx, fit.Request{
				Model:  net,
				Params: start,
				Areas:  areas,
				Uncorr: true,
				Solver: tight,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Measured.Columns).To(Equal(measure.DefaultColumns[2:]))
			for name, want := range truth.Values() {
				Expect(out.Params[name].Value).To(BeNumerically("~", want, want*1e-3), name)
			}
			Expect(out.Stats.Covariance).NotTo(BeNil())
		})
	})

	Describe("FitMatrix", func() {
		It("raises on missing observations", func() {
			net := mustLookup(kinetics.AcetylCoA)
			m := &measure.Matrix{
				Times:   []float64{0, 1, 2},
				Columns: []string{"nolabel", "label"},
				Data:    mat.NewDense(3, 2, []float64{0, 0, 0.5, math.NaN(), 1, 1}),
			}
			_, err := fit.FitMatrix(ctx, fit.Request{
				Model:   net,
				Params:  params.NewSet(params.New("k0", 1), params.New("k1", 1), params.New("k_de", 1)),
				Columns: []string{"nolabel", "label"},
			}, m)
			Expect(err).To(MatchError(dynamo.ErrNonFinite))
		})

		It("fails on an empty matrix", func() {
			net := mustLookup(kinetics.AcetylCoA)
			_, err := fit.FitMatrix(ctx, fit.Request{
				Model:   net,
				Params:  params.NewSet(params.New("k0", 1), params.New("k1", 1), params.New("k_de", 1)),
				Columns: []string{"nolabel", "label"},
			}, &measure.Matrix{Columns: []string{"nolabel", "label"}})
			Expect(err).To(MatchError(dynamo.ErrEmptyTimeGrid))
		})

		It("requires a model", func() {
			_, err := fit.FitMatrix(ctx, fit.Request{}, &measure.Matrix{})
			Expect(err).To(MatchError(fit.ErrNoModel))
		})
	})
})
