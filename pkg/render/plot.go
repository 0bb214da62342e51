package render

import (
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"mammosim/pkg/errors"
)

// Series is one named curve on a profile chart.
type Series struct {
	Name   string
	Values []float64
}

// ProfilePlot draws one or more detector profiles as a line chart and
// saves it to path. Sample index runs along the horizontal axis.
func ProfilePlot(path, title string, series ...Series) error {
	if len(series) == 0 {
		return errors.New(errors.ErrCodeInvalidParam, "profile chart needs at least one series")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Detector position (px)"
	p.Y.Label.Text = "Intensity"
	p.Add(plotter.NewGrid())

	args := make([]interface{}, 0, 2*len(series))
	for _, s := range series {
		if len(s.Values) == 0 {
			return errors.New(errors.ErrCodeInvalidParam, "series %q has no samples", s.Name)
		}
		pts := make(plotter.XYs, len(s.Values))
		for i, v := range s.Values {
			pts[i].X = float64(i)
			pts[i].Y = v
		}
		args = append(args, s.Name, pts)
	}
	if err := plotutil.AddLines(p, args...); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}
