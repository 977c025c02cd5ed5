package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/partsim/internal/engine"
)

// SeriesToSVG renders one time series as an SVG polyline on a dark
// background, matching the terminal plot palette.
func SeriesToSVG(times, values []float64, width, height int, strokeColor string) string {
	if len(times) < 2 || len(times) != len(values) {
		return ""
	}

	minX, maxX := times[0], times[0]
	minY, maxY := values[0], values[0]
	for i := range times {
		if times[i] < minX {
			minX = times[i]
		}
		if times[i] > maxX {
			maxX = times[i]
		}
		if values[i] < minY {
			minY = values[i]
		}
		if values[i] > maxY {
			maxY = values[i]
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i := range times {
		x := (times[i] - minX) / rangeX * float64(width)
		y := float64(height) - (values[i]-minY)/rangeY*float64(height)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// StressToSVG plots the max-stress series from a result history.
func StressToSVG(results []*engine.CoupledResults, width, height int) string {
	times := make([]float64, len(results))
	values := make([]float64, len(results))
	for i, r := range results {
		times[i] = r.Timestamp
		values[i] = r.MaxStress()
	}
	return SeriesToSVG(times, values, width, height, "#00ff00")
}
