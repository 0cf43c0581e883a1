package shards

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ComponentNames labels the four-vector components in storage order.
var ComponentNames = [NComponents]string{"E", "px", "py", "pz"}

// Summary holds simple statistics over a loaded dataset, useful for sanity
// checks after provisioning.
type Summary struct {
	// Events is the number of events summarized.
	Events int

	// SignalFraction is the mean of the truth labels (labels are 0 or 1, so
	// this is the fraction of signal events).
	SignalFraction float64

	// ComponentMean and ComponentStdDev are per four-vector component,
	// computed over every constituent of every event.
	ComponentMean   [NComponents]float64
	ComponentStdDev [NComponents]float64
}

// Summarize computes a Summary for d.
func Summarize(d *JetData) Summary {
	s := Summary{Events: d.Events}
	if d.Events == 0 {
		return s
	}

	labels := make([]float64, d.Events)
	for i, v := range d.Labels {
		labels[i] = float64(v)
	}
	s.SignalFraction = stat.Mean(labels, nil)

	n := d.Events * d.Constituents
	values := make([]float64, n)
	for c := 0; c < d.Components && c < NComponents; c++ {
		for i := 0; i < n; i++ {
			values[i] = float64(d.Vectors[i*d.Components+c])
		}
		mean, std := stat.MeanStdDev(values, nil)
		s.ComponentMean[c] = mean
		s.ComponentStdDev[c] = std
	}
	return s
}

// String renders the summary as a short human-readable report.
func (s Summary) String() string {
	out := fmt.Sprintf("events=%d signal_fraction=%.3f", s.Events, s.SignalFraction)
	for c, name := range ComponentNames {
		out += fmt.Sprintf(" %s=%.3f±%.3f", name, s.ComponentMean[c], s.ComponentStdDev[c])
	}
	return out
}

// SavePlot writes a PNG scatter of constituent (px, py) for up to maxEvents
// events, signal in red and background in grey. Zero-padded constituents are
// skipped. maxEvents <= 0 plots every event.
func SavePlot(d *JetData, outPath string, maxEvents int) error {
	if maxEvents <= 0 || maxEvents > d.Events {
		maxEvents = d.Events
	}

	var signal, background plotter.XYs
	for i := 0; i < maxEvents; i++ {
		for j := 0; j < d.Constituents; j++ {
			v := d.Vector(i, j)
			if v[0] == 0 && v[1] == 0 && v[2] == 0 && v[3] == 0 {
				continue
			}
			pt := plotter.XY{X: float64(v[1]), Y: float64(v[2])}
			if d.Label(i) > 0.5 {
				signal = append(signal, pt)
			} else {
				background = append(background, pt)
			}
		}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Jet constituents: background (grey), signal (red), %d events", maxEvents)
	p.X.Label.Text = "px"
	p.Y.Label.Text = "py"

	bg, err := plotter.NewScatter(background)
	if err != nil {
		return err
	}
	bg.GlyphStyle.Color = color.RGBA{R: 120, G: 120, B: 120, A: 160}
	bg.GlyphStyle.Radius = vg.Points(1.2)
	p.Add(bg)
	p.Legend.Add("background", bg)

	sig, err := plotter.NewScatter(signal)
	if err != nil {
		return err
	}
	sig.GlyphStyle.Color = color.RGBA{R: 200, G: 30, B: 30, A: 200}
	sig.GlyphStyle.Radius = vg.Points(1.2)
	p.Add(sig)
	p.Legend.Add("signal", sig)

	p.Add(plotter.NewGrid())

	if dir := filepath.Dir(outPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return p.Save(8*vg.Inch, 6*vg.Inch, outPath)
}
