package ui

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"github.com/jaywantadh/PrioStream/internal/protocol"
)

const barWidth = 40

var (
	fullBlock    = "█"
	partialBlock = []string{" ", "▏", "▎", "▍", "▌", "▋", "▊", "▉"}
)

// Terminal renders a client session's progress as redrawn text lines.
type Terminal struct {
	out         io.Writer
	catalog     protocol.Catalog
	controlPath string
	tracker     *ProgressTracker
	redraw      *rate.Sometimes
	drawn       int
	nameWidth   int
}

func NewTerminal(out io.Writer, cat protocol.Catalog, controlPath string) *Terminal {
	width := 0
	for _, e := range cat {
		width = max(width, utf8.RuneCountInString(e.Name))
	}
	return &Terminal{
		out:         out,
		catalog:     cat,
		controlPath: controlPath,
		tracker:     NewProgressTracker(),
		redraw:      &rate.Sometimes{Interval: 100 * time.Millisecond},
		nameWidth:   width,
	}
}

// PrintCatalog lists the files the server offers.
func (t *Terminal) PrintCatalog() {
	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, "Files available for download:")
	for _, e := range t.catalog {
		fmt.Fprintf(t.out, " - %s - %s\n", pad(e.Name, t.nameWidth), humanize.IBytes(e.Size))
	}
	fmt.Fprintln(t.out)
}

func (t *Terminal) Progress(index int, received uint64) {
	e := t.catalog[index]
	t.tracker.Update(index, e.Name, received, e.Size)
	t.redraw.Do(t.render)
}

func (t *Terminal) Finished(index int) {
	t.tracker.Complete(index)
	t.clear()
	fmt.Fprintf(t.out, "Finished downloading `%s`\n", t.catalog[index].Name)
	t.render()
}

func (t *Terminal) Waiting() {
	t.clear()
	fmt.Fprintf(t.out, " ⠋ Edit `%s` to start downloading\n", t.controlPath)
	t.drawn = 1
}

func (t *Terminal) clear() {
	fmt.Fprint(t.out, strings.Repeat("\x1b[A\x1b[K", t.drawn))
	t.drawn = 0
}

func (t *Terminal) render() {
	t.clear()
	for _, p := range t.tracker.Active() {
		fmt.Fprintf(t.out, "Downloading file %s [%s] %3.0f%% %s/s ETA %s\n",
			pad(p.Name, t.nameWidth), bar(p.Percent()), p.Percent(),
			humanize.IBytes(uint64(p.Speed)), formatDuration(p.EstimatedTime))
		t.drawn++
	}
}

func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// bar draws percent as barWidth cells with eighth-cell resolution.
func bar(percent float64) string {
	steps := int(percent / 100 * barWidth * float64(len(partialBlock)))
	steps = min(max(steps, 0), barWidth*len(partialBlock))
	full := steps / len(partialBlock)

	var b strings.Builder
	b.WriteString(strings.Repeat(fullBlock, full))
	if full < barWidth {
		b.WriteString(partialBlock[steps%len(partialBlock)])
		b.WriteString(strings.Repeat(" ", barWidth-full-1))
	}
	return b.String()
}
