package render

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/penwyp/go-colony-monitor/internal/core/model"
	"github.com/penwyp/go-colony-monitor/internal/core/timeline"
	"github.com/penwyp/go-colony-monitor/internal/util"
)

// Band geometry in plot units. Each timeline row is drawn as one band: the
// activity bar at the bottom and one lane per predator label above it.
const (
	activityHeight = 1.0
	laneHeight     = 0.3
	attackStrip    = 0.15
	laneGap        = 0.05
	bandGap        = 0.5
	laneStride     = laneHeight + attackStrip + laneGap
)

// Figure size
const (
	FigureWidth      = 14 * vg.Inch
	rowFigureHeight  = 1.2 * vg.Inch
	minFigureHeight  = 2 * vg.Inch
	attackGlyphScale = 3
)

// Renderer draws observation timelines.
type Renderer struct {
	mapper *timeline.Mapper
	colors map[string]color.Color
	lanes  []string
}

// NewRenderer creates a renderer. predators fixes the order of the predator
// lanes; labels not listed get a lane after them.
func NewRenderer(mapper *timeline.Mapper, predators []string) *Renderer {
	colors := make(map[string]color.Color, len(DefaultColors))
	for k, v := range DefaultColors {
		colors[k] = v
	}
	return &Renderer{mapper: mapper, colors: colors, lanes: append([]string(nil), predators...)}
}

// WithColor overrides the color of a label.
func (r *Renderer) WithColor(label string, c color.Color) *Renderer {
	r.colors[label] = c
	return r
}

// band is the vertical layout of one figure.
type band struct {
	lanes  map[string]int
	height float64
}

func (r *Renderer) layout(predators []model.PredatorInterval) band {
	lanes := make(map[string]int)
	for _, l := range r.lanes {
		lanes[l] = len(lanes)
	}
	for _, p := range predators {
		if _, ok := lanes[p.Category]; !ok {
			lanes[p.Category] = len(lanes)
		}
	}
	height := activityHeight + laneGap + float64(len(lanes))*laneStride + bandGap
	return band{lanes: lanes, height: height}
}

// base is the bottom of row's band; rows go downwards.
func (b band) base(row int64) float64 {
	return -float64(row) * b.height
}

func (b band) lane(row int64, label string) (float64, float64) {
	bottom := b.base(row) + activityHeight + laneGap + float64(b.lanes[label])*laneStride
	return bottom, bottom + laneHeight
}

func rect(x0, x1, y0, y1 float64) plotter.XYs {
	return plotter.XYs{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}

func (r *Renderer) polygon(xys plotter.XYs, c color.Color) (*plotter.Polygon, error) {
	poly, err := plotter.NewPolygon(xys)
	if err != nil {
		return nil, err
	}
	poly.Color = c
	poly.LineStyle.Width = 0
	return poly, nil
}

// Plot draws the activities and predators of one source and camera.
func (r *Renderer) Plot(title string, activities []model.Interval, predators []model.PredatorInterval) (*plot.Plot, error) {
	b := r.layout(predators)
	firstRow, lastRow, ok := r.rowRange(append(model.Bases(predators), activities...))
	if !ok {
		return nil, fmt.Errorf("nothing to draw for %s", title)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Min, p.X.Max = 0, float64(r.mapper.RowSeconds())
	p.Y.Min, p.Y.Max = b.base(lastRow), b.base(firstRow)+b.height
	p.X.Tick.Marker = r.hourTicks()
	p.X.Tick.Label.Color = hoursColor
	p.Y.Tick.Marker = r.rowTicks(b, firstRow, lastRow)

	for row := firstRow; row <= lastRow; row++ {
		frame, err := plotter.NewLine(append(rect(p.X.Min, p.X.Max, b.base(row), b.base(row)+activityHeight), plotter.XY{X: p.X.Min, Y: b.base(row)}))
		if err != nil {
			return nil, err
		}
		frame.Color = frameColor
		frame.Width = vg.Points(0.6)
		p.Add(frame)
	}

	for _, iv := range activities {
		if err := r.addActivity(p, b, iv); err != nil {
			return nil, err
		}
	}
	for _, pred := range predators {
		if err := r.addPredator(p, b, pred); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// addActivity fills the segments of iv; a composed label is drawn as two
// stacked halves, one per part.
func (r *Renderer) addActivity(p *plot.Plot, b band, iv model.Interval) error {
	parts := model.ComposedParts(iv.Category)
	for _, seg := range r.mapper.IntervalSegments(iv) {
		if seg.Seconds() == 0 {
			continue
		}
		x0, x1 := float64(seg.Start.Offset), float64(seg.End.Offset)
		base := b.base(seg.Start.Row)
		h := activityHeight / float64(len(parts))
		for i, part := range parts {
			poly, err := r.polygon(rect(x0, x1, base+float64(i)*h, base+float64(i+1)*h), colorOf(r.colors, part))
			if err != nil {
				return err
			}
			p.Add(poly)
		}
	}
	return nil
}

func (r *Renderer) addPredator(p *plot.Plot, b band, pred model.PredatorInterval) error {
	c := colorOf(r.colors, pred.Category)
	for _, seg := range r.mapper.IntervalSegments(pred.Interval) {
		if seg.Seconds() == 0 {
			continue
		}
		y0, y1 := b.lane(seg.Start.Row, pred.Category)
		poly, err := r.polygon(rect(float64(seg.Start.Offset), float64(seg.End.Offset), y0, y1), c)
		if err != nil {
			return err
		}
		p.Add(poly)
	}

	if len(pred.Attacks) == 0 {
		return nil
	}
	points := make(plotter.XYs, len(pred.Attacks))
	for i, attack := range pred.Attacks {
		coord := r.mapper.Coordinate(attack)
		_, top := b.lane(coord.Row, pred.Category)
		points[i] = plotter.XY{X: float64(coord.Offset), Y: top + attackStrip/2}
	}
	scatter, err := plotter.NewScatter(points)
	if err != nil {
		return err
	}
	scatter.GlyphStyle.Shape = draw.CrossGlyph{}
	scatter.GlyphStyle.Color = c
	scatter.GlyphStyle.Radius = vg.Points(attackGlyphScale)
	p.Add(scatter)
	return nil
}

// hourTicks labels every hour of a row with its time of day.
func (r *Renderer) hourTicks() plot.ConstantTicks {
	var ticks []plot.Tick
	ref := r.mapper.Reference()
	for s := int64(0); s <= r.mapper.RowSeconds(); s += 3600 {
		ticks = append(ticks, plot.Tick{
			Value: float64(s),
			Label: ref.Add(time.Duration(s) * time.Second).Format("15:04"),
		})
	}
	return ticks
}

func (r *Renderer) rowTicks(b band, firstRow, lastRow int64) plot.ConstantTicks {
	ticks := make([]plot.Tick, 0, lastRow-firstRow+1)
	for row := firstRow; row <= lastRow; row++ {
		start := r.mapper.InstantAt(timeline.Coordinate{Row: row})
		part := timeline.PartNight
		if timeline.IsDaytime(row) {
			part = timeline.PartDay
		}
		ticks = append(ticks, plot.Tick{
			Value: b.base(row) + activityHeight/2,
			Label: fmt.Sprintf("%s %s", start.Format("Jan 2 15:04"), part),
		})
	}
	return ticks
}

// rowRange returns the first and last rows touched by intervals.
func (r *Renderer) rowRange(intervals []model.Interval) (int64, int64, bool) {
	if len(intervals) == 0 {
		return 0, 0, false
	}
	first := r.mapper.Coordinate(intervals[0].Start).Row
	for _, iv := range intervals[1:] {
		first = min(first, r.mapper.Coordinate(iv.Start).Row)
	}
	return first, r.mapper.LastRow(intervals), true
}

// FigureHeight grows with the number of rows drawn.
func FigureHeight(rows int64) vg.Length {
	h := vg.Length(rows) * rowFigureHeight
	if h < minFigureHeight {
		return minFigureHeight
	}
	return h
}

// Save renders one figure per camera of source into dir, named
// <source>_<camera>.png, and returns the written paths.
func (r *Renderer) Save(dir, source string, cameras []model.Camera, activities []model.Interval, predators []model.PredatorInterval) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create figure directory: %w", err)
	}

	var paths []string
	for _, cam := range cameras {
		camActivities := filterCamera(activities, source, cam)
		var camPredators []model.PredatorInterval
		for _, p := range predators {
			if p.Source == source && p.Camera == cam {
				camPredators = append(camPredators, p)
			}
		}
		if len(camActivities) == 0 && len(camPredators) == 0 {
			continue
		}

		p, err := r.Plot(fmt.Sprintf("%s %s", source, cam), camActivities, camPredators)
		if err != nil {
			return paths, err
		}
		first, last, _ := r.rowRange(append(model.Bases(camPredators), camActivities...))
		rows := last - first + 1
		path := filepath.Join(dir, fileName(source, cam))
		if err := p.Save(FigureWidth, FigureHeight(rows), path); err != nil {
			return paths, fmt.Errorf("failed to save %s: %w", path, err)
		}
		util.LogDebug(fmt.Sprintf("Saved timeline %s (%d rows)", path, rows))
		paths = append(paths, path)
	}
	return paths, nil
}

func filterCamera(intervals []model.Interval, source string, cam model.Camera) []model.Interval {
	var out []model.Interval
	for _, iv := range intervals {
		if iv.Source == source && iv.Camera == cam {
			out = append(out, iv)
		}
	}
	return out
}

func fileName(source string, cam model.Camera) string {
	name := strings.NewReplacer("/", "_", string(os.PathSeparator), "_").Replace(source)
	return fmt.Sprintf("%s_%s.png", name, cam)
}
