package sim

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Summary condenses a History into a few tracking figures.
type Summary struct {
	MeanAbsError float64 `json:"mean_abs_error"`
	RMSError     float64 `json:"rms_error"`
	// MaxOvershoot is how far the feedback went past the final setpoint, moving away from zero.
	MaxOvershoot float64 `json:"max_overshoot"`
	FinalError   float64 `json:"final_error"`
}

// Times returns the sample times.
func (h *History) Times() []float64 {
	return lo.Map(h.Samples, func(s Sample, _ int) float64 { return s.Time })
}

// Setpoints returns the setpoint at each sample.
func (h *History) Setpoints() []float64 {
	return lo.Map(h.Samples, func(s Sample, _ int) float64 { return s.Setpoint })
}

// Errors returns the error fed to the controller at each sample.
func (h *History) Errors() []float64 {
	return lo.Map(h.Samples, func(s Sample, _ int) float64 { return s.Error })
}

// Outputs returns the controller correction at each sample.
func (h *History) Outputs() []float64 {
	return lo.Map(h.Samples, func(s Sample, _ int) float64 { return s.Output })
}

// Feedbacks returns the plant output after each sample.
func (h *History) Feedbacks() []float64 {
	return lo.Map(h.Samples, func(s Sample, _ int) float64 { return s.Feedback })
}

// Summarize computes the tracking figures of the run.
func (h *History) Summarize() (Summary, error) {
	if len(h.Samples) == 0 {
		return Summary{}, errors.New("cannot summarize an empty history")
	}
	errs := h.Errors()
	mae, err := stats.Mean(lo.Map(errs, func(e float64, _ int) float64 { return math.Abs(e) }))
	if err != nil {
		return Summary{}, err
	}
	ms, err := stats.Mean(lo.Map(errs, func(e float64, _ int) float64 { return e * e }))
	if err != nil {
		return Summary{}, err
	}

	direction := 1.0
	if h.Final < 0 {
		direction = -1.0
	}
	peak, err := stats.Max(lo.Map(h.Feedbacks(), func(y float64, _ int) float64 { return direction * (y - h.Final) }))
	if err != nil {
		return Summary{}, err
	}

	last := h.Samples[len(h.Samples)-1]
	return Summary{
		MeanAbsError: mae,
		RMSError:     math.Sqrt(ms),
		MaxOvershoot: math.Max(0, peak),
		FinalError:   last.Setpoint - last.Feedback,
	}, nil
}

func (h *History) tableWriter() table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"time", "setpoint", "error", "output", "feedback"})
	for _, s := range h.Samples {
		t.AppendRow(table.Row{
			strconv.FormatFloat(s.Time, 'f', -1, 64),
			strconv.FormatFloat(s.Setpoint, 'f', -1, 64),
			strconv.FormatFloat(s.Error, 'g', 6, 64),
			strconv.FormatFloat(s.Output, 'g', 6, 64),
			strconv.FormatFloat(s.Feedback, 'g', 6, 64),
		})
	}
	return t
}

// Table renders the samples as a text table.
func (h *History) Table() string {
	t := h.tableWriter()
	t.SetStyle(table.StyleLight)
	return t.Render()
}

// WriteCSV writes the samples as CSV with a header row.
func (h *History) WriteCSV(w io.Writer) error {
	_, err := fmt.Fprintln(w, h.tableWriter().RenderCSV())
	return err
}

// String renders the summary as a two column table.
func (s Summary) String() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"metric", "value"})
	t.AppendRows([]table.Row{
		{"mean abs error", fmt.Sprintf("%.6g", s.MeanAbsError)},
		{"rms error", fmt.Sprintf("%.6g", s.RMSError)},
		{"max overshoot", fmt.Sprintf("%.6g", s.MaxOvershoot)},
		{"final error", fmt.Sprintf("%.6g", s.FinalError)},
	})
	t.SetStyle(table.StyleLight)
	return t.Render()
}

func xys(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	return pts
}

// PlotPNG draws setpoint, feedback and controller output against time and saves the figure to
// path. Width and height are in inches.
func (h *History) PlotPNG(path string, widthIn, heightIn float64) error {
	if len(h.Samples) == 0 {
		return errors.New("cannot plot an empty history")
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("PID kp=%g ki=%g kd=%g", h.Gains.Kp, h.Gains.Ki, h.Gains.Kd)
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "value"
	p.Add(plotter.NewGrid())

	times := h.Times()
	for i, series := range []struct {
		name string
		ys   []float64
	}{
		{"setpoint", h.Setpoints()},
		{"feedback", h.Feedbacks()},
		{"output", h.Outputs()},
	} {
		line, err := plotter.NewLine(xys(times, series.ys))
		if err != nil {
			return errors.Wrapf(err, "cannot plot %s", series.name)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = plotColors[i]
		p.Add(line)
		p.Legend.Add(series.name, line)
	}
	p.Legend.Top = true

	w := vg.Length(widthIn) * vg.Inch
	ht := vg.Length(heightIn) * vg.Inch
	return p.Save(w, ht, path)
}
