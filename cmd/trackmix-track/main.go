package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"gioui.org/app"
	"github.com/trackmix/trackmix/cmd"
	"github.com/trackmix/trackmix/config"
	"github.com/trackmix/trackmix/editor/gioui"
	"github.com/trackmix/trackmix/version"
)

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")
var configPath = flag.String("config", "", "configuration file; by default $TRACKMIX_CONFIG or config.yml in the user configuration directory")
var defaultMidiInput = flag.String("midi-input", "", "connect MIDI input to matching device name prefix")

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%v: multitrack audio editor.\nUsage: %s [flags] file ...\n", version.Banner("trackmix-track"), os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	var f *os.File
	if *cpuprofile != "" {
		var err error
		f, err = os.Create(*cpuprofile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if isFlagPassed("midi-input") {
		cfg.MIDIInput = *defaultMidiInput
	}
	session, err := cmd.OpenSession(context.Background(), cfg, flag.Args(), log.Default())
	if err != nil {
		log.Fatal(err)
	}
	audioContext, err := cmd.NewAudioContext(cfg, session.State().SampleRate)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	engine := session.Player.Engine()
	audioCloser := audioContext.Play(func(buf []float32) error {
		engine.Process(buf)
		return nil
	})
	ui := gioui.NewEditor(session.Session, session.Player, filepath.Base(flag.Arg(0)))

	go func() {
		ui.Main()
		// the engine is destroyed by the audio callback, so close the session first
		session.Close()
		audioCloser.Close()
		audioContext.Close()
		if *cpuprofile != "" {
			pprof.StopCPUProfile()
			f.Close()
		}
		if *memprofile != "" {
			f, err := os.Create(*memprofile)
			if err != nil {
				log.Fatal("could not create memory profile: ", err)
			}
			defer f.Close()
			runtime.GC() // get up-to-date statistics
			if err := pprof.WriteHeapProfile(f); err != nil {
				log.Fatal("could not write memory profile: ", err)
			}
		}
		os.Exit(0)
	}()
	app.Main()
}

func isFlagPassed(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
