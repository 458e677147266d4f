package render

import (
	"hash/fnv"
	"image/color"

	"github.com/penwyp/go-colony-monitor/internal/core/model"
)

// DefaultColors are the colors of the field protocol labels.
var DefaultColors = map[string]color.Color{
	model.CategoryResting:      color.RGBA{R: 200, G: 200, B: 200, A: 255},
	model.CategoryTransport:    color.RGBA{R: 0, G: 95, B: 135, A: 255},
	model.CategoryConstruction: color.RGBA{R: 0, G: 43, B: 51, A: 255},
	model.CategoryColumn:       color.RGBA{R: 0, G: 128, B: 0, A: 255},
	model.CategoryForaging:     color.RGBA{R: 115, G: 75, B: 155, A: 255},
	model.PredatorOpiliones:    color.RGBA{R: 20, G: 20, B: 60, A: 255},
	model.PredatorReduviidae:   color.RGBA{R: 120, G: 20, B: 20, A: 255},
}

var (
	hoursColor = color.RGBA{R: 80, G: 80, B: 80, A: 255}
	frameColor = color.Black

	// fallback colors for labels without a configured color
	palette = []color.Color{
		color.RGBA{R: 230, G: 159, B: 0, A: 255},
		color.RGBA{R: 86, G: 180, B: 233, A: 255},
		color.RGBA{R: 0, G: 158, B: 115, A: 255},
		color.RGBA{R: 240, G: 228, B: 66, A: 255},
		color.RGBA{R: 213, G: 94, B: 0, A: 255},
		color.RGBA{R: 204, G: 121, B: 167, A: 255},
	}
)

// colorOf returns the configured color of label, or a stable palette color.
func colorOf(colors map[string]color.Color, label string) color.Color {
	if c, ok := colors[label]; ok {
		return c
	}
	h := fnv.New32a()
	h.Write([]byte(label))
	return palette[h.Sum32()%uint32(len(palette))]
}
