package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/trackmix/trackmix"
	"github.com/trackmix/trackmix/cmd"
	"github.com/trackmix/trackmix/config"
	"github.com/trackmix/trackmix/editor"
	"github.com/trackmix/trackmix/version"
	"github.com/trackmix/trackmix/waveform"
)

func main() {
	help := flag.Bool("h", false, "Show help.")
	versionFlag := flag.Bool("v", false, "Print version.")
	configPath := flag.String("config", "", "Configuration file. By default, $TRACKMIX_CONFIG or config.yml in the user configuration directory.")
	output := flag.String("o", "", "Bounce the mix to this .wav (or .raw) file instead of playing.")
	bits := flag.Int("bits", 16, "Bit depth of the bounce: 16, 24 or 32 (float).")
	pngOut := flag.String("png", "", "Render the waveform of all tracks to this .png file.")
	width := flag.Int("width", 1600, "Width of the waveform image.")
	height := flag.Int("height", 800, "Height of the waveform image.")
	play := flag.Bool("p", false, "Play the files (default behaviour when no other output is defined).")
	loop := flag.Bool("loop", false, "Loop the playback or the selection until interrupted.")
	start := flag.String("start", "", "Start playing from this position, in the units given by -unit.")
	sel := flag.String("sel", "", "Play only the selection `from:to`, in the units given by -unit.")
	unit := flag.String("unit", "", "Units of -start and -sel: time, sample or measure.")
	gains := flag.String("gain", "", "Comma separated track gains in dB.")
	master := flag.Float64("master", 0, "Master gain in dB.")
	normalize := flag.Bool("normalize", false, "Set the master gain so that the mix peaks at 0 dBFS.")
	grouping := flag.String("grouping", "", "Track grouping string, e.g. 0-1_2.")
	meters := flag.Bool("meters", false, "Log the peak meters once a second while playing.")
	midiInput := flag.String("midi-input", "", "Connect MIDI input to matching device name prefix.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if flag.NArg() == 0 || *help {
		flag.Usage()
		os.Exit(0)
	}
	if *output == "" && *pngOut == "" {
		*play = true // if the user gives nothing to output, then the default behaviour is just to play the files
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if isFlagPassed("loop") {
		cfg.Loop = *loop
	} else if *play {
		cfg.Loop = false
	}
	if *unit != "" {
		cfg.Unit = trackmix.Unit(*unit)
	}
	if *midiInput != "" {
		cfg.MIDIInput = *midiInput
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	logger := log.Default()
	session, err := cmd.OpenSession(ctx, cfg, flag.Args(), logger)
	if err != nil {
		log.Fatal(err)
	}
	if err := setupMix(ctx, session, *gains, *grouping, *master, *normalize); err != nil {
		log.Fatal(err)
	}
	timing := cfg.Editor().Timing(session.State().SampleRate)
	if *sel != "" {
		from, to, ok := strings.Cut(*sel, ":")
		if !ok {
			log.Fatalf("selection %q is not from:to", *sel)
		}
		a, errA := trackmix.ParsePosition(from, cfg.Unit, timing)
		b, errB := trackmix.ParsePosition(to, cfg.Unit, timing)
		if errA != nil || errB != nil {
			log.Fatalf("could not parse selection %q: %v", *sel, errors.Join(errA, errB))
		}
		session.SetSelRange(&[2]float64{a, b})
	}
	if *start != "" {
		pos, err := trackmix.ParsePosition(*start, cfg.Unit, timing)
		if err != nil {
			log.Fatal(err)
		}
		session.SetPlayhead(pos)
	}
	retval := 0
	if *output != "" {
		if err := bounce(ctx, session, *output, *bits); err != nil {
			fmt.Fprintf(os.Stderr, "could not bounce to %v: %v\n", *output, err)
			retval = 1
		}
	}
	if *pngOut != "" {
		if err := renderPNG(session, *pngOut, *width, *height); err != nil {
			fmt.Fprintf(os.Stderr, "could not render %v: %v\n", *pngOut, err)
			retval = 1
		}
	}
	if *play {
		if err := playback(ctx, cfg, session, *meters); err != nil {
			fmt.Fprintf(os.Stderr, "playback failed: %v\n", err)
			retval = 1
		}
	}
	session.Close()
	os.Exit(retval)
}

func setupMix(ctx context.Context, s *cmd.Session, gains, grouping string, master float64, normalize bool) error {
	if err := s.SetGroupingString(grouping); err != nil {
		return err
	}
	if gains != "" {
		for i, g := range strings.Split(gains, ",") {
			var db float64
			if _, err := fmt.Sscanf(strings.TrimSpace(g), "%g", &db); err != nil {
				return fmt.Errorf("could not parse gain %q of track %d: %w", g, i, err)
			}
			s.SetGain(i, db)
		}
	}
	s.SetMasterGain(master)
	if normalize {
		if err := s.NormalizeMaster(ctx); err != nil {
			return err
		}
		log.Printf("normalized master gain to %.1f dB", s.State().MasterGain)
	}
	return nil
}

func bounce(ctx context.Context, s *cmd.Session, path string, bits int) error {
	buf, err := s.Bounce(ctx)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(path), ".raw") {
		raw, err := trackmix.Raw(buf, bits)
		if err != nil {
			return err
		}
		return os.WriteFile(path, raw, 0644)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := trackmix.WriteWav(f, buf, bits); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func renderPNG(s *cmd.Session, path string, width, height int) error {
	if err := s.RequestWaveform(); err != nil {
		return err
	}
	for deadline := time.Now().Add(time.Minute); s.Waveform() == nil; {
		if time.Now().After(deadline) {
			return errors.New("timed out waiting for the waveform")
		}
		s.ProcessMessages()
		time.Sleep(time.Millisecond)
	}
	st := s.State()
	view := trackmix.Range{Start: 0, End: st.Length}
	if sel := st.SelRange; sel != nil {
		view = *sel
	}
	raster := waveform.NewRaster(width, height)
	opts := waveform.DefaultPaintOptions(float32(width), float32(height))
	opts.LabelsWidth, opts.LabelsHeight = 40, 24
	r := waveform.Renderer{Slices: []waveform.Slice{*s.Waveform()}, Opts: opts}
	waveform.PaintAmplitudeRuler(raster, opts, s.Waveform().NumChannels())
	r.Opts.PaintOver = true
	r.Opts.Width -= opts.LabelsWidth
	r.Paint(raster, view)
	waveform.PaintTimeRuler(raster, r.Opts, view, st.Configuration.Unit, st.Configuration.Timing(st.SampleRate))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := raster.WritePNG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func playback(ctx context.Context, cfg config.Config, s *cmd.Session, meters bool) error {
	audioContext, err := cmd.NewAudioContext(cfg, s.State().SampleRate)
	if err != nil {
		return err
	}
	defer audioContext.Close()
	engine := s.Player.Engine()
	audioCloser := audioContext.Play(func(buf []float32) error {
		engine.Process(buf)
		return nil
	})
	defer audioCloser.Close()
	s.Events.Playing.Subscribe(func(p editor.PlayingState) {
		log.Printf("%v at %v", p, s.State().PlayheadString())
	})
	if meters {
		// the window peak then covers one report
		s.Player.SetMeterWindow(int(meterInterval.Seconds() * float64(s.State().SampleRate)))
	}
	s.Play()
	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()
	lastMeter := time.Now()
	for {
		select {
		case <-ctx.Done():
			stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if pos, err := s.Player.QueryPlayhead(stopCtx); err == nil {
				st := s.State()
				log.Printf("interrupted at %v", trackmix.FormatPosition(pos, st.Configuration.Unit, st.Configuration.Timing(st.SampleRate)))
			}
			s.Stop()
			return nil
		case <-ticker.C:
		}
		s.ProcessMessages()
		s.UpdatePlayhead()
		if meters && time.Since(lastMeter) >= meterInterval {
			lastMeter = time.Now()
			log.Printf("%v tracks %v master %v", s.State().PlayheadString(), dbString(s.Player.TrackPeaks()), dbString(s.Player.MasterPeaks()))
		}
		if s.State().Playing == editor.Stopped {
			return nil
		}
	}
}

const meterInterval = time.Second

func dbString(peaks []float32) string {
	parts := make([]string, len(peaks))
	for i, p := range peaks {
		parts[i] = fmt.Sprintf("%.1f", trackmix.AmpToDB(float64(p)))
	}
	return "[" + strings.Join(parts, " ") + "]"
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

func printUsage() {
	fmt.Fprintf(os.Stderr, "%v: command line utility for playing, bouncing and drawing multitrack audio.\nUsage: %s [flags] [file ...]\n", version.Banner("trackmix-play"), os.Args[0])
	flag.PrintDefaults()
}
