// Package render dumps executed trajectories as PNG plots. Rendering is
// peripheral to a run: callers log failures as warnings and carry on.
package render

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const (
	plotWidth  = 8 * vg.Inch
	plotHeight = 4 * vg.Inch
)

// SavePNG writes a line plot of the trajectory, one series per joint,
// planning steps left to right. The image format follows the path's
// extension; .png is the expected one.
func SavePNG(path string, trajectory [][]float64) error {
	if len(trajectory) == 0 || len(trajectory[0]) == 0 {
		return fmt.Errorf("render: empty trajectory")
	}
	dof := len(trajectory[0])
	for t, row := range trajectory {
		if len(row) != dof {
			return fmt.Errorf("render: step %d has %d joints, step 0 has %d", t, len(row), dof)
		}
	}

	p := plot.New()
	p.Title.Text = "Executed trajectory"
	p.X.Label.Text = "planning step"
	p.Y.Label.Text = "joint target"

	for d := 0; d < dof; d++ {
		pts := make(plotter.XYs, len(trajectory))
		for t, row := range trajectory {
			pts[t].X = float64(t)
			pts[t].Y = row[d]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("render: joint %d: %w", d, err)
		}
		line.Color = plotutil.Color(d)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("joint %d", d), line)
	}

	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}
