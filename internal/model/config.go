package model

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const (
	LogStderr  = "stderr"
	LogStdout  = "stdout"
	LogDiscard = "discard"

	DefaultMaxTasks     = 4096
	DefaultLineCapacity = 1022
	DefaultSleepUnit    = "ms"
)

type Config struct {
	Version int   `yaml:"version"` // fixed 0 for now
	Tasks   Tasks `yaml:"tasks"`
	Sleep   Sleep `yaml:"sleep"`
	Log     Log   `yaml:"log"`
}

// Tasks limits the registry and the per stream retained line.
type Tasks struct {
	Max          int `yaml:"max"`
	LineCapacity int `yaml:"line_capacity"`
}

// Sleep holds the unit applied to `sleep <n>` when n carries no suffix.
type Sleep struct {
	Unit string `yaml:"unit"` // ns | us | ms | s | m
}

type Log struct {
	Verbose *bool   `yaml:"verbose,omitempty"`
	Output  *string `yaml:"output,omitempty"` // "stderr"|"discard"
}

func DefaultConfig() Config {
	return Config{
		Version: 0,
		Tasks: Tasks{
			Max:          DefaultMaxTasks,
			LineCapacity: DefaultLineCapacity,
		},
		Sleep: Sleep{
			Unit: DefaultSleepUnit,
		},
	}
}

// LoadConfig decodes YAML from r on top of DefaultConfig and validates the result.
// Unknown keys are rejected.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Version != 0 {
		errs = append(errs, fmt.Errorf("config version %d is not supported, expected 0", c.Version))
	}
	if c.Tasks.Max <= 0 {
		errs = append(errs, fmt.Errorf("tasks.max must be positive, got %d", c.Tasks.Max))
	}
	if c.Tasks.LineCapacity <= 0 {
		errs = append(errs, fmt.Errorf("tasks.line_capacity must be positive, got %d", c.Tasks.LineCapacity))
	}
	if _, ok := SleepUnits[c.Sleep.Unit]; !ok {
		errs = append(errs, fmt.Errorf("sleep.unit %q is not one of ns, us, ms, s, m", c.Sleep.Unit))
	}
	if c.Log.Output != nil {
		switch *c.Log.Output {
		case LogStderr, LogDiscard:
		case LogStdout:
			errs = append(errs, errors.New("log.output stdout would corrupt the console, use stderr or discard"))
		default:
			errs = append(errs, fmt.Errorf("log.output %q is not one of stderr, discard", *c.Log.Output))
		}
	}
	return errors.Join(errs...)
}

func (c Config) Verbose() bool {
	return get(c.Log.Verbose)
}

func (c Config) LogOutput() string {
	if c.Log.Output == nil {
		return LogStderr
	}
	return *c.Log.Output
}

func get[T any](pt *T) T {
	var zero T
	if pt == nil {
		return zero
	}
	return *pt
}
