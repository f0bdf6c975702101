package tui

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/san-kum/acetylkin/internal/dynamo"
)

const (
	barWidth    = 50
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer replays samples as horizontal concentration bars. It is a
// dynamo.Observer; frameRate paces the replay and 0 draws every sample
// without waiting.
type LiveRenderer struct {
	model     string
	names     []string
	out       io.Writer
	frameRate int
	lastFrame time.Time
	peak      float64
}

func NewLiveRenderer(out io.Writer, model string, names []string, frameRate int) *LiveRenderer {
	return &LiveRenderer{
		model:     model,
		names:     names,
		out:       out,
		frameRate: frameRate,
	}
}

func (r *LiveRenderer) OnSample(x dynamo.State, t float64) {
	if r.frameRate > 0 && !r.lastFrame.IsZero() {
		wait := time.Second/time.Duration(r.frameRate) - time.Since(r.lastFrame)
		if wait > 0 {
			time.Sleep(wait)
		}
	}
	r.lastFrame = time.Now()

	for _, v := range x {
		r.peak = math.Max(r.peak, math.Abs(v))
	}
	r.render(x, t)
}

func (r *LiveRenderer) render(x dynamo.State, t float64) {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(fmt.Sprintf("  %s  t=%.2f\n", r.model, t))
	b.WriteString("  " + strings.Repeat("-", barWidth+22) + "\n")

	for i, v := range x {
		name := fmt.Sprintf("x%d", i)
		if i < len(r.names) {
			name = r.names[i]
		}
		b.WriteString(fmt.Sprintf("  %-14s %s %.4f\n", name, bar(v, r.peak, barWidth, "#", "."), v))
	}

	b.WriteString("  " + strings.Repeat("-", barWidth+22) + "\n")
	fmt.Fprint(r.out, b.String())
}

// bar draws v as a fraction of peak. Negative values render empty.
func bar(v, peak float64, w int, fill, empty string) string {
	filled := 0
	if peak > 0 && v > 0 {
		filled = int(math.Round(v / peak * float64(w)))
	}
	if filled > w {
		filled = w
	}
	return strings.Repeat(fill, filled) + strings.Repeat(empty, w-filled)
}

func (r *LiveRenderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.out, showCursor) }
