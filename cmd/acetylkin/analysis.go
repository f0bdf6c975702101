package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/acetylkin/internal/analysis"
	"github.com/san-kum/acetylkin/internal/config"
	"github.com/san-kum/acetylkin/internal/dynamo"
	"github.com/san-kum/acetylkin/internal/kinetics"
)

var (
	relStep   float64
	scanParam string
	scanMin   float64
	scanMax   float64
	scanSteps int
	total     float64
)

func analysisCommands() []*cobra.Command {
	sensCmd := &cobra.Command{
		Use:   "sensitivity [model]",
		Short: "rank free rate constants by trajectory sensitivity",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSensitivity,
	}
	addModelFlags(sensCmd)
	sensCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	sensCmd.Flags().Float64Var(&relStep, "step", analysis.DefaultStep, "relative perturbation")

	steadyCmd := &cobra.Command{
		Use:   "steady [model]",
		Short: "print the analytical steady state, optionally over a parameter range",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSteady,
	}
	addModelFlags(steadyCmd)
	steadyCmd.Flags().Float64Var(&total, "total", 1, "total peptide amount")
	steadyCmd.Flags().StringVar(&scanParam, "scan", "", "rate constant to sweep")
	steadyCmd.Flags().Float64Var(&scanMin, "min", 0, "scan start")
	steadyCmd.Flags().Float64Var(&scanMax, "max", 1, "scan end")
	steadyCmd.Flags().IntVar(&scanSteps, "steps", 11, "number of scan values")

	return []*cobra.Command{sensCmd, steadyCmd}
}

func runSensitivity(cmd *cobra.Command, args []string) error {
	exp, err := newExperiment(cmd, args)
	if err != nil {
		return err
	}
	cfg := exp.Config()
	p, err := cfg.ResolveParams()
	if err != nil {
		return err
	}

	var x0 dynamo.State
	if net, ok := exp.Model().(*kinetics.Network); ok {
		if x0, err = cfg.GetInitState(net); err != nil {
			return err
		}
	} else {
		x0 = cfg.Sim.InitState
	}

	grid := floats.Span(make([]float64, cfg.Points), 0, cfg.Sim.Duration)
	res, err := analysis.Sensitivity(exp.Model(), p, x0, grid, cfg.Solver, relStep)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "PARAM\tSCORE\t%s\n", strings.Join(res.States, "\t"))
	for _, name := range res.Params {
		fmt.Fprintf(w, "%s\t%.4g", name, res.Score(name))
		for j := range res.States {
			fmt.Fprintf(w, "\t%.3g", res.StateScore(name, j))
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func runSteady(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	net, err := kinetics.Lookup(cfg.Model)
	if err != nil {
		return err
	}
	p, err := cfg.ResolveParams()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if scanParam == "" {
		x, err := net.SteadyState(p, total)
		if err != nil {
			return err
		}
		for i, name := range net.StateNames() {
			fmt.Fprintf(w, "%s\t%.6g\n", name, x[i])
		}
		return w.Flush()
	}

	points, err := analysis.SteadyStateScan(net, p, scanParam, scanMin, scanMax, scanSteps, total)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s\t%s\n", scanParam, strings.Join(net.StateNames(), "\t"))
	for _, pt := range points {
		fmt.Fprintf(w, "%.4g", pt.Param)
		if pt.Err != nil {
			fmt.Fprintf(w, "\t%v\n", pt.Err)
			continue
		}
		for _, v := range pt.State {
			fmt.Fprintf(w, "\t%.4g", v)
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}
