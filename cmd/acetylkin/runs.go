package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/acetylkin/internal/automation"
	"github.com/san-kum/acetylkin/internal/export"
	"github.com/san-kum/acetylkin/internal/storage"
	"github.com/san-kum/acetylkin/internal/tui"
)

var (
	plotWidth  int
	plotHeight int
)

func runCommands() []*cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "show a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run-id] [columns...]",
		Short: "plot a saved trajectory in the terminal",
		Args:  cobra.MinimumNArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotWidth, "width", 70, "plot width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 15, "plot height")

	chartCmd := &cobra.Command{
		Use:   "chart [run-id] [file]",
		Short: "render measured vs fitted for a saved fit (.png or .svg)",
		Args:  cobra.ExactArgs(2),
		RunE:  chartRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run-id]",
		Short: "export a saved trajectory to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			if outPath == "" {
				return st.WriteCSV(os.Stdout, args[0])
			}
			if err := st.ExportCSV(outPath, args[0]); err != nil {
				return err
			}
			fmt.Printf("exported to %s\n", outPath)
			return nil
		},
	}
	exportCSVCmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default: stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run-id]",
		Short: "export a saved run with its data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			if outPath == "" {
				return st.WriteJSON(os.Stdout, args[0])
			}
			if err := st.ExportJSON(outPath, args[0]); err != nil {
				return err
			}
			fmt.Printf("exported to %s\n", outPath)
			return nil
		},
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default: stdout)")

	browseCmd := &cobra.Command{
		Use:   "browse",
		Short: "browse saved runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.RunBrowser(storage.New(dataDir))
		},
	}

	return []*cobra.Command{listCmd, showCmd, plotCmd, chartCmd, exportCSVCmd, exportJSONCmd, browseCmd}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tMODEL\tCONDITION\tREDCHI\tTIMESTAMP")
	for _, run := range runs {
		redchi := "-"
		if run.Fit != nil && run.Fit.RedChi != nil {
			redchi = fmt.Sprintf("%.4g", *run.Fit.RedChi)
		}
		cond := run.Condition
		if cond == "" {
			cond = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			run.ID, run.Kind, run.Model, cond, redchi, run.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s (%s)\n", meta.ID, meta.Kind)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("timestamp: %s\n", meta.Timestamp.Format("2006-01-02 15:04:05"))
	if meta.Condition != "" {
		fmt.Printf("condition: %s\n", meta.Condition)
	}
	if meta.Method != "" {
		fmt.Printf("method: %s\n", meta.Method)
	}
	fmt.Printf("solver: %s rtol=%g atol=%g\n", meta.Solver.Method, meta.Solver.RTol, meta.Solver.ATol)

	if report, err := st.LoadReport(args[0]); err == nil && report != "" {
		fmt.Println()
		fmt.Println(report)
		return nil
	}

	fmt.Println("\nparameters:")
	for _, name := range meta.Params.Names() {
		fmt.Printf("  %-6s %g\n", name, meta.Params[name].Value)
	}
	if len(meta.Metrics) > 0 {
		names := make([]string, 0, len(meta.Metrics))
		for name := range meta.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Println("\nmetrics:")
		for _, name := range names {
			if v := meta.Metrics[name]; v != nil {
				fmt.Printf("  %s: %.6g\n", name, *v)
			} else {
				fmt.Printf("  %s: -\n", name)
			}
		}
	}
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	plot, err := export.ASCII(traj, args[0], plotHeight, plotWidth, args[1:]...)
	if err != nil {
		return err
	}
	fmt.Println(plot)
	return nil
}

func chartRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	fitted, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	measured, err := st.LoadMeasured(args[0])
	if err != nil {
		return err
	}

	graph, err := export.FitChart(fmt.Sprintf("%s %s", meta.Model, meta.Condition), measured, fitted)
	if err != nil {
		return err
	}
	path := args[1]
	if filepath.Ext(path) == "" {
		path += ".png"
	}
	if err := export.WriteChart(path, graph); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

// sweepSeries turns the successful sweep points into a plottable column.
func sweepSeries(results []automation.SweepResult) ([]float64, *mat.Dense) {
	var xs, ys []float64
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		xs = append(xs, r.ParamValue)
		ys = append(ys, r.ChiSqr)
	}
	return xs, mat.NewDense(len(ys), 1, ys)
}
