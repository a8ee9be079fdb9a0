//go:build unix

package core

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/inhies/go-bytesize"
	"gopkg.in/yaml.v2"
)

// FileConfig is the on-disk form of SchedulerConfig.
//
//	quantum_usecs: 10000
//	max_threads: 100
//	stack_size: 4KB
//	timer: ticker
//	history_capacity: 64
type FileConfig struct {
	QuantumUsecs    int    `yaml:"quantum_usecs"`
	MaxThreads      int    `yaml:"max_threads,omitempty"`
	StackSize       string `yaml:"stack_size,omitempty"`
	Timer           string `yaml:"timer,omitempty"`
	HistoryCapacity int    `yaml:"history_capacity,omitempty"`
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*SchedulerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes YAML into a SchedulerConfig. Omitted keys keep their
// defaults; unknown keys are rejected.
func ParseConfig(data []byte) (*SchedulerConfig, error) {
	var fc FileConfig
	if err := yaml.UnmarshalStrict(data, &fc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return fc.SchedulerConfig()
}

// SchedulerConfig converts the file form, filling defaults for omitted keys.
// The result is validated.
func (fc FileConfig) SchedulerConfig() (*SchedulerConfig, error) {
	cfg := DefaultSchedulerConfig(fc.QuantumUsecs)
	if fc.MaxThreads != 0 {
		cfg.MaxThreads = fc.MaxThreads
	}
	if fc.StackSize != "" {
		size, err := ParseStackSize(fc.StackSize)
		if err != nil {
			return nil, err
		}
		cfg.StackSize = size
	}
	if fc.Timer != "" {
		cfg.TimerKind = TimerKind(fc.Timer)
		if err := cfg.TimerKind.Validate(); err != nil {
			return nil, err
		}
	}
	if fc.HistoryCapacity != 0 {
		cfg.HistoryCapacity = fc.HistoryCapacity
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseStackSize accepts a plain byte count ("4096") or a size with a unit
// ("4KB", "1MB").
func ParseStackSize(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("%w: stack size must be positive, got %d", ErrInvalidConfig, n)
		}
		return n, nil
	}
	b, err := bytesize.Parse(s)
	if err != nil {
		return 0, fmt.Errorf("%w: stack size %q: %v", ErrInvalidConfig, s, err)
	}
	if b < 1 {
		return 0, fmt.Errorf("%w: stack size must be positive, got %s", ErrInvalidConfig, s)
	}
	return int(b), nil
}

// FormatStackSize renders n bytes the way ParseStackSize accepts them.
func FormatStackSize(n int) string {
	return bytesize.New(float64(n)).String()
}
