// Package chart renders the day-wise average time trend as a PNG.
package chart

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/vvka-141/perfdigest/pkg/perfdigest"
)

// SeriesQuery selects the Avg metric over time.
const SeriesQuery = `SELECT summary_timestamp, summary_value FROM tabjolt.summary_line WHERE summary_metrix = 'Avg' ORDER BY summary_timestamp`

const (
	title      = "Average Time Taken for Tabjolt Run (Day Wise)"
	xLabel     = "Date"
	yLabel     = "Average Time (ms)"
	dateLayout = "2006-01-02"
	tickStep   = 1000
)

var (
	width  = 10 * vg.Inch
	height = 6 * vg.Inch
)

// Point is one day of the series. Values are whole milliseconds.
type Point struct {
	Date  time.Time
	Value int
}

// Renderer queries the series and writes the chart to path.
type Renderer struct {
	opener perfdigest.SessionOpener
	path   string
	logger perfdigest.Logger
}

func New(opener perfdigest.SessionOpener, path string, logger perfdigest.Logger) *Renderer {
	return &Renderer{opener: opener, path: path, logger: logger}
}

// Render returns the PNG path, or perfdigest.ErrEmptyResult when the series
// has no rows. Nothing is written in that case.
func (r *Renderer) Render(ctx context.Context) (string, error) {
	rows, err := r.fetch(ctx)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("average time series: %w", perfdigest.ErrEmptyResult)
	}

	points, err := prepareSeries(rows)
	if err != nil {
		return "", err
	}

	if err := Plot(points, r.path); err != nil {
		return "", err
	}
	r.logger.Info("Chart with %d point(s) written to %s", len(points), r.path)
	return r.path, nil
}

func (r *Renderer) fetch(ctx context.Context) ([][]any, error) {
	session, err := r.opener.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := session.Close(ctx); cerr != nil {
			r.logger.Verbose("Closing chart connection: %v", cerr)
		}
	}()

	rows, err := session.Query(ctx, SeriesQuery)
	if err != nil {
		return nil, err
	}
	values, err := perfdigest.CollectRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", err, perfdigest.ErrQueryFailed)
	}
	return values, nil
}

// prepareSeries decodes (timestamp, value) rows, truncates values to integers
// and sorts by date.
func prepareSeries(rows [][]any) ([]Point, error) {
	points := make([]Point, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("series row %d has %d columns: %w", i, len(row), perfdigest.ErrQueryFailed)
		}
		date, ok := row[0].(time.Time)
		if !ok {
			return nil, fmt.Errorf("series row %d: timestamp is %T: %w", i, row[0], perfdigest.ErrQueryFailed)
		}
		v, ok := perfdigest.ToFloat(row[1])
		if !ok {
			return nil, fmt.Errorf("series row %d: value is %T: %w", i, row[1], perfdigest.ErrQueryFailed)
		}
		points = append(points, Point{Date: date, Value: int(v)})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points, nil
}

// yTicks returns every tickStep from tickStep up to (floor(max/tickStep)+1)*tickStep.
func yTicks(max int) []float64 {
	top := (max/tickStep + 1) * tickStep
	if top < tickStep {
		top = tickStep
	}
	var ticks []float64
	for v := tickStep; v <= top; v += tickStep {
		ticks = append(ticks, float64(v))
	}
	return ticks
}

// Plot draws points as a line with markers and value annotations and saves
// the result as PNG at path.
func Plot(points []Point, path string) error {
	if len(points) == 0 {
		return fmt.Errorf("plot: %w", perfdigest.ErrEmptyResult)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	xys := make(plotter.XYs, len(points))
	labels := make([]string, len(points))
	xticks := make([]plot.Tick, len(points))
	maxValue := math.MinInt
	for i, pt := range points {
		x := float64(pt.Date.Unix())
		xys[i].X = x
		xys[i].Y = float64(pt.Value)
		labels[i] = strconv.Itoa(pt.Value)
		xticks[i] = plot.Tick{Value: x, Label: pt.Date.Format(dateLayout)}
		if pt.Value > maxValue {
			maxValue = pt.Value
		}
	}

	line, markers, err := plotter.NewLinePoints(xys)
	if err != nil {
		return fmt.Errorf("plot series: %w", err)
	}
	markers.Shape = draw.CircleGlyph{}

	annotations, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return fmt.Errorf("plot labels: %w", err)
	}
	annotations.Offset = vg.Point{Y: vg.Points(10)}
	for i := range annotations.TextStyle {
		annotations.TextStyle[i].XAlign = text.XCenter
		annotations.TextStyle[i].YAlign = text.YBottom
	}

	p.Add(line, markers, annotations, plotter.NewGrid())

	p.X.Tick.Marker = plot.ConstantTicks(xticks)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = text.XRight
	p.X.Tick.Label.YAlign = text.YCenter

	ticks := yTicks(maxValue)
	yt := make([]plot.Tick, len(ticks))
	for i, v := range ticks {
		yt[i] = plot.Tick{Value: v, Label: strconv.Itoa(int(v))}
	}
	p.Y.Tick.Marker = plot.ConstantTicks(yt)
	if top := ticks[len(ticks)-1]; p.Y.Max < top {
		p.Y.Max = top
	}

	if len(points) == 1 {
		p.X.Min -= 12 * 3600
		p.X.Max += 12 * 3600
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("prepare %s: %w", path, err)
	}
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("save chart %s: %w", path, err)
	}
	return nil
}
