package types

import (
	"context"
	"fmt"
	"os"
	"path"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// DeltaPoints converts the per-iteration deltas to plottable points
func DeltaPoints(deltas []float64) plotter.XYs {
	points := make(plotter.XYs, len(deltas))
	for i, v := range deltas {
		points[i] = plotter.XY{
			X: float64(i + 1),
			Y: v,
		}
	}
	return points
}

// ConvergencePlotter saves the max value change per iteration as <plotPath>/<name>_convergence.png
func ConvergencePlotter(plotPath string) Recorder {
	return RecorderFunc(func(_ context.Context, name string, result *Result) error {
		if result.Diagnostics == nil || len(result.Diagnostics.Deltas) == 0 {
			return nil
		}
		if _, err := os.Stat(plotPath); err != nil {
			if err := os.MkdirAll(plotPath, os.ModePerm); err != nil {
				return err
			}
		}

		p := plot.New()
		p.Title.Text = name
		p.X.Label.Text = "Iteration"
		p.Y.Label.Text = "Max value change"

		line, err := plotter.NewLine(DeltaPoints(result.Diagnostics.Deltas))
		if err != nil {
			return fmt.Errorf("convergence plot: %w", err)
		}
		line.Color = plotutil.Color(0)
		p.Add(line)
		p.Legend.Add(result.Diagnostics.Method, line)
		return p.Save(8*vg.Inch, 6*vg.Inch, path.Join(plotPath, name+"_convergence.png"))
	})
}
