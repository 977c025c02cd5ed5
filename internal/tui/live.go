package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/san-kum/partsim/internal/engine"
)

const (
	frameWidth  = 70
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer prints plain ANSI frames for terminals where the full
// dashboard is unwanted, throttled to a frame rate independent of the
// stepping rate.
type LiveRenderer struct {
	frameRate int
	lastFrame time.Time
}

func NewLiveRenderer(frameRate int) *LiveRenderer {
	if frameRate <= 0 {
		frameRate = 30
	}
	return &LiveRenderer{frameRate: frameRate}
}

func (r *LiveRenderer) Start() { fmt.Print(hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Print(showCursor) }

// OnStep renders the latest snapshot if enough wall time has passed.
func (r *LiveRenderer) OnStep(res *engine.CoupledResults, t float64) {
	if res == nil {
		return
	}
	if time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = time.Now()

	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(fmt.Sprintf("  partsim  t=%.2fs\n", t))
	b.WriteString("  " + strings.Repeat("-", frameWidth) + "\n")

	if res.Electrical != nil {
		b.WriteString(fmt.Sprintf("  electrical: %.3f W dissipated, efficiency %.2f\n",
			res.Electrical.TotalPower, res.Electrical.Efficiency))
	}
	if res.Thermal != nil {
		b.WriteString(fmt.Sprintf("  thermal:    max %.1f C, stored %.1f J\n",
			res.Thermal.MaxTemperature, res.Thermal.StoredEnergy))
	}
	if res.Mechanical != nil {
		b.WriteString(fmt.Sprintf("  mechanical: %.2f MPa, safety factor %.1f\n",
			res.Mechanical.MaxStress/1e6, res.Mechanical.SafetyFactor))
	}
	if res.Physics != nil {
		b.WriteString(fmt.Sprintf("  physics:    KE %.2f J, vibration %.2f, %d broken joints\n",
			res.Physics.KineticEnergy, res.Physics.Vibration, res.Physics.BrokenJoints))
	}

	if res.Failure != nil {
		b.WriteString(fmt.Sprintf("  reliability %.3f, %d events\n",
			res.Failure.Reliability, res.Failure.EventCount))

		ids := make([]string, 0, len(res.Failure.HealthScores))
		for id := range res.Failure.HealthScores {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			h := res.Failure.HealthScores[id]
			filled := int(h * 30)
			if filled < 0 {
				filled = 0
			}
			b.WriteString(fmt.Sprintf("    %-12s [%s%s] %.2f\n",
				id, strings.Repeat("#", filled), strings.Repeat(".", 30-filled), h))
		}
	}

	b.WriteString("  " + strings.Repeat("-", frameWidth) + "\n")
	fmt.Print(b.String())
}
