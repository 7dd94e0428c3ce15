/*
NAME
  plot.go

AUTHORS
  Russell Stanley <russell@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package calibrate

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotMargins renders a bar chart of each symbol's mean separation from its
// nearest neighbor after the codec round trip, to path (a PNG), for
// operators tuning color_threshold_percent.
func PlotMargins(margins []Margin, path string) error {
	p := plot.New()
	p.Title.Text = "Encoding map color separation after codec round trip"
	p.Y.Label.Text = "mean distance to nearest neighbor color"

	values := make(plotter.Values, len(margins))
	labels := make([]string, len(margins))
	for i, mg := range margins {
		values[i] = mg.MeanDistance
		labels[i] = fmt.Sprintf("%c", mg.Symbol)
	}
	bars, err := plotter.NewBarChart(values, vg.Points(12))
	if err != nil {
		return err
	}
	p.Add(bars)
	p.NominalX(labels...)

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
