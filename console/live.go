package console

import (
	"fmt"

	"github.com/jroimartin/gocui"
)

/*
Live is the optional -ui debug view: a gocui.View kept scrolled to the
latest tick, refreshed from its own goroutine the way the teacher's Gui
console refreshes its status view from consoleOut. Unlike the batch
output Writer, this one is legitimately asynchronous — gocui redraws
on its own schedule, not on the executor's — so it keeps the
teacher's channel-fed goroutine shape instead of collapsing to a
direct write.
*/

// Live renders one line of simulator state per tick into a gocui view.
type Live struct {
	g      *gocui.Gui
	v      *gocui.View
	update chan string
}

// NewLive attaches to the named view of g, which must already exist
// (g's MainLoop need not be running yet), and starts the refresh
// goroutine.
func NewLive(g *gocui.Gui, viewName string) (*Live, error) {
	v, err := g.View(viewName)
	if err != nil {
		return nil, err
	}
	l := &Live{g: g, v: v, update: make(chan string)}
	go l.run()
	return l, nil
}

func (l *Live) run() {
	for line := range l.update {
		l.g.Update(func(g *gocui.Gui) error {
			l.v.Clear()
			fmt.Fprintln(l.v, line)
			return nil
		})
	}
}

// Tick reports one cycle's worth of CPU/PCB state to the view.
func (l *Live) Tick(pid, ic, ttc, llc int, flags string) {
	l.update <- fmt.Sprintf("pid=%d ic=%d ttc=%d llc=%d %s", pid, ic, ttc, llc, flags)
}

// WriteConsole satisfies Sink so a Live view can be teed alongside the
// batch output file.
func (l *Live) WriteConsole(line string) error {
	l.update <- line
	return nil
}

// Close stops the refresh goroutine.
func (l *Live) Close() {
	close(l.update)
}
