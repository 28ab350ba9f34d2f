// Package gioui is the desktop user interface of a session: a waveform view,
// a transport toolbar and a mixer, drawn with gioui.
package gioui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"time"

	"gioui.org/app"
	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget/material"
	"gioui.org/x/explorer"
	"github.com/trackmix/trackmix"
	"github.com/trackmix/trackmix/editor"
	"github.com/trackmix/trackmix/waveform"
)

type Editor struct {
	Theme     *material.Theme
	Session   *editor.Session
	Player    *editor.AudioPlayer
	Explorer  *explorer.Explorer
	Exploring bool
	// Title is shown in the window title and used as the default name of
	// bounced files.
	Title string

	Toolbar  *Toolbar
	WaveView *WaveView
	Mixer    *Mixer

	alert      string
	alertUntil time.Time
	// actions are run on the main loop; background goroutines use it to
	// report back.
	actions chan func()
}

const alertDuration = 5 * time.Second

func NewEditor(s *editor.Session, p *editor.AudioPlayer, title string) *Editor {
	return &Editor{
		Theme:    NewTheme(),
		Session:  s,
		Player:   p,
		Title:    title,
		Toolbar:  NewToolbar(),
		WaveView: NewWaveView(),
		Mixer:    NewMixer(),
		actions:  make(chan func(), 16),
	}
}

// Main opens the window and runs the event loop until the window is closed.
// Session messages are processed and the play head updated at the display
// rate.
func (e *Editor) Main() {
	var ops op.Ops
	w := new(app.Window)
	w.Option(app.Title(titleFor(e.Title)), app.Size(unit.Dp(1280), unit.Dp(720)))
	e.Explorer = explorer.NewExplorer(w)
	unsubscribe := e.Session.Events.Waveform.Subscribe(func(*waveform.Slice) { w.Invalidate() })
	defer unsubscribe()
	if e.Session.Waveform() == nil {
		if err := e.Session.RequestWaveform(); err != nil {
			e.SetAlert(err.Error())
		}
	}
	acks := make(chan struct{})
	events := make(chan event.Event)
	go func() {
		for {
			ev := w.Event()
			events <- ev
			<-acks
			if _, ok := ev.(app.DestroyEvent); ok {
				return
			}
		}
	}()
	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()
	for {
		select {
		case f := <-e.actions:
			f()
			w.Invalidate()
		case <-ticker.C:
			e.Session.ProcessMessages()
			e.Session.UpdatePlayhead()
			if e.Player != nil {
				e.Mixer.SampleMeters(e.Player)
			}
			w.Invalidate()
		case ev := <-events:
			e.Explorer.ListenEvents(ev)
			switch ev := ev.(type) {
			case app.DestroyEvent:
				acks <- struct{}{}
				return
			case app.FrameEvent:
				gtx := app.NewContext(&ops, ev)
				if e.Layout(gtx) {
					w.Perform(system.ActionClose)
				}
				ev.Frame(gtx.Ops)
			}
			acks <- struct{}{}
		}
	}
}

func titleFor(name string) string {
	if name == "" {
		return "Trackmix"
	}
	return fmt.Sprintf("Trackmix - %s", name)
}

// Layout draws a frame and reports whether the user asked to quit.
func (e *Editor) Layout(gtx C) (quit bool) {
	defer clip.Rect(image.Rectangle{Max: gtx.Constraints.Max}).Push(gtx.Ops).Pop()
	paint.Fill(gtx.Ops, e.Theme.Palette.Bg)
	event.Op(gtx.Ops, e)
	layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx C) D { return e.Toolbar.Layout(gtx, e.Theme, e) }),
		layout.Flexed(1, func(gtx C) D { return e.WaveView.Layout(gtx, e.Theme, e.Session) }),
		layout.Rigid(func(gtx C) D { return e.Mixer.Layout(gtx, e.Theme, e.Session) }),
	)
	for {
		ev, ok := gtx.Event(
			key.Filter{Name: key.NameSpace},
			key.Filter{Name: key.NameEscape},
			key.Filter{Name: key.NameHome},
			key.Filter{Name: key.NameEnd},
			key.Filter{Name: "A", Required: key.ModShortcut},
			key.Filter{Name: "L", Required: key.ModShortcut},
			key.Filter{Name: "Q", Required: key.ModShortcut},
			key.Filter{Name: "+", Optional: key.ModShift},
			key.Filter{Name: "-"},
		)
		if !ok {
			break
		}
		if ke, ok := ev.(key.Event); ok && ke.State == key.Press {
			if e.KeyEvent(ke) {
				quit = true
			}
		}
	}
	return quit
}

// KeyEvent handles the global shortcuts and reports whether the user asked
// to quit.
func (e *Editor) KeyEvent(ke key.Event) bool {
	s := e.Session
	st := s.State()
	view := st.ViewRange
	switch {
	case ke.Name == key.NameSpace:
		s.TogglePlay()
	case ke.Name == key.NameEscape:
		s.Stop()
	case ke.Name == key.NameHome:
		s.SetPlayhead(0)
	case ke.Name == key.NameEnd:
		s.SetPlayhead(float64(st.Length))
	case ke.Name == "A":
		s.SetSelRangeToAll()
	case ke.Name == "L":
		s.SetLoop(!st.Loop)
	case ke.Name == "Q":
		return true
	case ke.Name == "+":
		s.ZoomH(float64(view.Start+view.End)/2, 1)
	case ke.Name == "-":
		s.ZoomH(float64(view.Start+view.End)/2, -1)
	}
	return false
}

// SetAlert shows a message in the toolbar for a while.
func (e *Editor) SetAlert(msg string) {
	e.alert, e.alertUntil = msg, time.Now().Add(alertDuration)
}

func (e *Editor) Alert(now time.Time) string {
	if now.After(e.alertUntil) {
		return ""
	}
	return e.alert
}

// BounceToFile asks for a file name and writes the mix there as a wav file.
// The mix is rendered before the dialog opens, so later edits do not affect
// it.
func (e *Editor) BounceToFile(bitDepth int) {
	buf, err := e.Session.Bounce(context.Background())
	if err != nil {
		e.SetAlert(err.Error())
		return
	}
	data, err := trackmix.Wav(buf, bitDepth)
	if err != nil {
		e.SetAlert(err.Error())
		return
	}
	name := "mix.wav"
	if e.Title != "" {
		name = e.Title[:len(e.Title)-len(filepath.Ext(e.Title))] + ".wav"
	}
	e.explorerCreateFile(func(wc io.WriteCloser) {
		_, err := wc.Write(data)
		if cerr := wc.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			e.SetAlert(err.Error())
		}
	}, name)
}

func (e *Editor) explorerCreateFile(success func(io.WriteCloser), filename string) {
	e.Exploring = true
	go func() {
		file, err := e.Explorer.CreateFile(filename)
		e.actions <- func() {
			e.Exploring = false
			if err == nil {
				success(file)
			} else if !errors.Is(err, explorer.ErrUserDecline) {
				e.SetAlert(err.Error())
			}
		}
	}()
}
