package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jroimartin/gocui"

	"mos/console"
	"mos/logger"
	"mos/scheduler"
	"mos/system"
)

const usage = "mos -in jobs.txt [-out out.txt] [-trace] [-ui] [-quantum n] [-maxtimer n]"

var (
	inPath   string
	outPath  string
	logPath  string
	trace    bool
	liveUI   bool
	quantum  int
	maxTimer int
	helpFlag bool
)

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

func init() {
	flag.StringVar(&inPath, "in", "", "batch input file of control cards (required)")
	flag.StringVar(&outPath, "out", "", "console output file (default stdout)")
	flag.StringVar(&logPath, "log", "", "trace log file (default stdout)")
	flag.BoolVar(&trace, "trace", false, "log per-cycle trace detail")
	flag.BoolVar(&liveUI, "ui", false, "show a live gocui view of the running job")
	flag.IntVar(&quantum, "quantum", scheduler.DefaultQuantum, "ticks between preemption checks")
	flag.IntVar(&maxTimer, "maxtimer", system.MaxTimer, "global tick ceiling before the batch halts")
	flag.BoolVar(&helpFlag, "help", false, "display command usage")
	flag.Parse()
}

func main() {
	os.Exit(run())
}

func run() int {
	if helpFlag {
		fmt.Println(usage)
		return 0
	}
	if inPath == "" {
		log.Println(usage)
		return 1
	}

	lines, err := readLines(inPath)
	if err != nil {
		log.Println(err)
		return 1
	}

	out, closeOut, err := openOutput(outPath)
	if err != nil {
		log.Println(err)
		return 1
	}
	defer closeOut()

	l := logger.New(logPath)
	if trace {
		l.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	}

	sink, closeSink, err := buildSink(out, liveUI)
	if err != nil {
		log.Println(err)
		return 1
	}
	defer closeSink()

	sys := system.New(quantum, sink, l)
	sys.MaxTimer = maxTimer
	if err := sys.LoadBatch(lines); err != nil {
		log.Println(err)
		return 1
	}

	sys.Run()

	if w, ok := sink.(*console.Writer); ok {
		if err := w.Flush(); err != nil {
			log.Println(err)
			return 1
		}
	}

	return 0
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}

func openOutput(path string) (f *os.File, closeFn func(), err error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

// buildSink wires the batch output Writer and, when -ui is set, tees it
// to a live gocui view the way the teacher's main wires its Gui console
// alongside the status/registers panes.
func buildSink(out *os.File, liveUI bool) (console.Sink, func(), error) {
	w := console.NewWriter(out)
	if !liveUI {
		return w, func() {}, nil
	}

	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return nil, nil, err
	}
	g.SetManagerFunc(debugLayout)
	if err := g.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, quitDebugView); err != nil {
		g.Close()
		return nil, nil, err
	}

	// Create the console view synchronously, before MainLoop starts,
	// so NewLive has something to attach to: SetManagerFunc's layout
	// only runs once the loop is already spinning.
	if err := debugLayout(g); err != nil {
		g.Close()
		return nil, nil, err
	}

	live, err := console.NewLive(g, "console")
	if err != nil {
		g.Close()
		return nil, nil, err
	}

	go func() {
		if err := g.MainLoop(); err != nil && err != gocui.ErrQuit {
			log.Println(err)
		}
	}()

	return console.Multi{w, live}, func() {
		live.Close()
		g.Close()
	}, nil
}

func debugLayout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	if v, err := g.SetView("console", 0, 0, maxX-1, maxY-1); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Console"
		v.Autoscroll = true
	}
	return nil
}

func quitDebugView(g *gocui.Gui, v *gocui.View) error {
	return gocui.ErrQuit
}
