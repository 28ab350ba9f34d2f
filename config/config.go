// Package config loads the application configuration: built-in defaults,
// overlaid by a YAML file and then by TRACKMIX_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/trackmix/trackmix"
	"github.com/trackmix/trackmix/editor"
	"github.com/trackmix/trackmix/engine"
	"github.com/trackmix/trackmix/waveform"
	"gopkg.in/yaml.v3"
)

type Config struct {
	SampleRate      int           `yaml:"samplerate"`
	BufferSize      time.Duration `yaml:"buffersize"`
	Quantum         int           `yaml:"quantum"`
	MeterWindow     int           `yaml:"meterwindow"`
	ResizeFactor    int           `yaml:"resizefactor"`
	MinWidth        int           `yaml:"minwidth"`
	Unit            trackmix.Unit `yaml:"unit"`
	BeatsPerMinute  float64       `yaml:"beatsperminute"`
	BeatsPerMeasure int           `yaml:"beatspermeasure"`
	Division        int           `yaml:"division"`
	Loop            bool          `yaml:"loop"`
	MIDIInput       string        `yaml:"midiinput,omitempty"`
}

func Default() Config {
	return Config{
		SampleRate:      48000,
		BufferSize:      40 * time.Millisecond,
		Quantum:         engine.DefaultQuantum,
		MeterWindow:     1024,
		ResizeFactor:    waveform.DefaultResizeFactor,
		MinWidth:        waveform.DefaultMinWidth,
		Unit:            editor.DefaultConfiguration.Unit,
		BeatsPerMinute:  editor.DefaultConfiguration.BeatsPerMinute,
		BeatsPerMeasure: editor.DefaultConfiguration.BeatsPerMeasure,
		Division:        editor.DefaultConfiguration.Division,
		Loop:            true,
	}
}

// DefaultPath returns the path of the configuration file in the user's
// configuration directory, or "" if there is none.
func DefaultPath() string {
	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "Trackmix", "config.yml")
	}
	return ""
}

// Load returns the configuration. The file at path, or at $TRACKMIX_CONFIG
// when path is empty, is read if given; a missing default file is not an
// error.
func Load(path string) (Config, error) {
	c := Default()
	explicit := path != ""
	if !explicit {
		path = os.Getenv("TRACKMIX_CONFIG")
		explicit = path != ""
	}
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &c); err != nil {
				return Config{}, fmt.Errorf("could not parse config file %v: %w", path, err)
			}
		case explicit || !errors.Is(err, fs.ErrNotExist):
			return Config{}, fmt.Errorf("could not read config file %v: %w", path, err)
		}
	}
	if err := c.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	var errs []error
	envInt("TRACKMIX_SAMPLERATE", &c.SampleRate, &errs)
	envInt("TRACKMIX_QUANTUM", &c.Quantum, &errs)
	envInt("TRACKMIX_METERWINDOW", &c.MeterWindow, &errs)
	envInt("TRACKMIX_RESIZEFACTOR", &c.ResizeFactor, &errs)
	envInt("TRACKMIX_MINWIDTH", &c.MinWidth, &errs)
	envInt("TRACKMIX_BEATSPERMEASURE", &c.BeatsPerMeasure, &errs)
	envInt("TRACKMIX_DIVISION", &c.Division, &errs)
	envFloat("TRACKMIX_BPM", &c.BeatsPerMinute, &errs)
	envBool("TRACKMIX_LOOP", &c.Loop, &errs)
	envStr("TRACKMIX_MIDIINPUT", &c.MIDIInput)
	var unit string
	if envStr("TRACKMIX_UNIT", &unit) {
		c.Unit = trackmix.Unit(unit)
	}
	if v, ok := os.LookupEnv("TRACKMIX_BUFFERSIZE"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("TRACKMIX_BUFFERSIZE: %w", err))
		}
		c.BufferSize = d
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

func envStr(key string, dst *string) bool {
	v, ok := os.LookupEnv(key)
	if ok {
		*dst = v
	}
	return ok
}

func envInt(key string, dst *int, errs *[]error) {
	if v, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("%v: %w", key, err))
			return
		}
		*dst = i
	}
}

func envFloat(key string, dst *float64, errs *[]error) {
	if v, ok := os.LookupEnv(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("%v: %w", key, err))
			return
		}
		*dst = f
	}
}

func envBool(key string, dst *bool, errs *[]error) {
	if v, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("%v: %w", key, err))
			return
		}
		*dst = b
	}
}

// Validate reports every out of range field.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	check(c.SampleRate > 0, "sample rate %d is not positive", c.SampleRate)
	check(c.BufferSize > 0, "buffer size %v is not positive", c.BufferSize)
	check(c.Quantum > 0, "quantum %d is not positive", c.Quantum)
	check(c.MeterWindow > 0 && c.MeterWindow <= engine.MaxWindowSize,
		"meter window %d is outside [1, %d]", c.MeterWindow, engine.MaxWindowSize)
	check(c.ResizeFactor >= 2, "resize factor %d is below 2", c.ResizeFactor)
	check(c.MinWidth >= 1, "minimum width %d is below 1", c.MinWidth)
	check(c.Unit.Valid(), "unknown unit %q", c.Unit)
	check(c.BeatsPerMinute > 0, "tempo %v is not positive", c.BeatsPerMinute)
	check(c.BeatsPerMeasure > 0, "beats per measure %d is not positive", c.BeatsPerMeasure)
	check(c.Division > 0, "division %d is not positive", c.Division)
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Editor returns the display configuration of a session.
func (c *Config) Editor() editor.Configuration {
	return editor.Configuration{
		Unit:            c.Unit,
		BeatsPerMinute:  c.BeatsPerMinute,
		BeatsPerMeasure: c.BeatsPerMeasure,
		Division:        c.Division,
	}
}

func (c *Config) Engine() engine.Options {
	return engine.Options{Quantum: c.Quantum, MeterWindow: c.MeterWindow}
}

func (c *Config) Pyramid() waveform.PyramidOptions {
	return waveform.PyramidOptions{ResizeFactor: c.ResizeFactor, MinWidth: c.MinWidth}
}

// Save writes the configuration as YAML, creating the directory if needed.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("could not marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("could not write config file %v: %w", path, err)
	}
	return nil
}
