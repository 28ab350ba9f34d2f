package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/trackmix/trackmix"
	"github.com/trackmix/trackmix/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(p, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TRACKMIX_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	c, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c != config.Default() {
		t.Fatalf("got %+v, expected the defaults %+v", c, config.Default())
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	p := writeConfig(t, "samplerate: 44100\nbuffersize: 20ms\nunit: measure\nbeatsperminute: 120\n")
	t.Setenv("TRACKMIX_QUANTUM", "256")
	t.Setenv("TRACKMIX_LOOP", "false")
	t.Setenv("TRACKMIX_BPM", "90")
	c, err := config.Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if c.SampleRate != 44100 || c.BufferSize != 20*time.Millisecond || c.Unit != trackmix.UnitMeasure {
		t.Fatalf("file values were not applied: %+v", c)
	}
	if c.Quantum != 256 || c.Loop || c.BeatsPerMinute != 90 {
		t.Fatalf("environment values were not applied: %+v", c)
	}
	if c.MeterWindow != config.Default().MeterWindow {
		t.Fatalf("unset value changed: %+v", c)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name, file, key, value string
	}{
		{"bad yaml", "samplerate: [", "", ""},
		{"bad unit", "unit: parsecs", "", ""},
		{"bad env", "", "TRACKMIX_SAMPLERATE", "fast"},
		{"negative", "", "TRACKMIX_QUANTUM", "-1"},
		{"huge meter window", "meterwindow: 4294967295\n", "", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if c.key != "" {
				t.Setenv(c.key, c.value)
			}
			_, err := config.Load(writeConfig(t, c.file))
			if err == nil {
				t.Fatalf("expected an error")
			}
			if c.name != "bad yaml" && !errors.Is(err, config.ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatalf("a missing explicit file was accepted")
	}
}

func TestSaveLoad(t *testing.T) {
	c := config.Default()
	c.MIDIInput = "Launch"
	c.Division = 8
	p := filepath.Join(t.TempDir(), "sub", "config.yml")
	if err := c.Save(p); err != nil {
		t.Fatal(err)
	}
	got, err := config.Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if got != c {
		t.Fatalf("loaded %+v, expected %+v", got, c)
	}
}
