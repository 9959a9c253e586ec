package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sarchlab/ppscal/sequencer"
	"github.com/sarchlab/ppscal/sim"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable ppscal reads.
const EnvPrefix = "PPSCAL_"

// Settings are the knobs of one run. They are layered: defaults, then the
// YAML file, then .env and the environment, then command-line flags.
type Settings struct {
	StartFreq    string `yaml:"start_freq"`
	FreqStep     string `yaml:"freq_step"`
	TargetFreq   string `yaml:"target_freq"`
	TargetPolicy string `yaml:"target_policy"`
	ResetTime    int    `yaml:"reset_time"`
	IrqTimeout   int    `yaml:"irq_timeout"`
	DeadTime     int    `yaml:"dead_time"`

	BusFreq     string `yaml:"bus_freq"`
	PPSInterval uint64 `yaml:"pps_interval"`
	NoPPS       bool   `yaml:"no_pps"`
	WaitEvery   uint64 `yaml:"wait_every"`
	Duration    string `yaml:"duration"`
	ParallelIDs bool   `yaml:"parallel_ids"`

	Monitor     bool   `yaml:"monitor"`
	MonitorPort int    `yaml:"monitor_port"`
	OpenMonitor bool   `yaml:"open_monitor"`
	Record      bool   `yaml:"record"`
	Output      string `yaml:"output"`
	Verbose     bool   `yaml:"verbose"`
	LogEvents   bool   `yaml:"log_events"`
}

// DefaultSettings mirrors the sequencer defaults.
func DefaultSettings() Settings {
	return Settings{
		StartFreq:    "10MHz",
		FreqStep:     "1MHz",
		TargetFreq:   "20MHz",
		TargetPolicy: "ignore",
		ResetTime:    50,
		IrqTimeout:   20000,
		DeadTime:     1000,
		BusFreq:      "50MHz",
		PPSInterval:  100,
		Duration:     "1ms",
	}
}

// LoadFile overlays the settings found in a YAML file.
func LoadFile(s Settings, path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse config: %w", err)
	}

	return s, nil
}

// ReadEnv collects PPSCAL_* variables from an optional .env file and the
// process environment. The environment wins over the file. Keys are returned
// without the prefix and in lower case.
func ReadEnv(envFile string, environ []string) (map[string]string, error) {
	values := make(map[string]string)

	if envFile != "" {
		fileValues, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", envFile, err)
		}

		for k, v := range fileValues {
			addEnv(values, k, v)
		}
	}

	for _, kv := range environ {
		k, v, found := strings.Cut(kv, "=")
		if found {
			addEnv(values, k, v)
		}
	}

	return values, nil
}

func addEnv(values map[string]string, key, value string) {
	if !strings.HasPrefix(key, EnvPrefix) {
		return
	}

	values[strings.ToLower(strings.TrimPrefix(key, EnvPrefix))] = value
}

// Overlay sets the fields whose YAML keys appear in values. Values are plain
// scalars, resolved the same way as in the YAML file.
func Overlay(s Settings, values map[string]string) (Settings, error) {
	if len(values) == 0 {
		return s, nil
	}

	node := &yaml.Node{Kind: yaml.MappingNode}
	for k, v := range values {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Value: v},
		)
	}

	if err := node.Decode(&s); err != nil {
		return s, fmt.Errorf("apply settings: %w", err)
	}

	return s, nil
}

// ParseFreq parses a frequency such as "10MHz", "2.5 kHz" or "1e6".
func ParseFreq(s string) (sim.Freq, error) {
	str := strings.ToLower(strings.TrimSpace(s))

	scale := 1.0
	for _, unit := range []struct {
		suffix string
		scale  float64
	}{
		{"ghz", 1e9},
		{"mhz", 1e6},
		{"khz", 1e3},
		{"hz", 1},
	} {
		if strings.HasSuffix(str, unit.suffix) {
			str = strings.TrimSpace(strings.TrimSuffix(str, unit.suffix))
			scale = unit.scale

			break
		}
	}

	v, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frequency %q", s)
	}

	if v < 0 {
		return 0, fmt.Errorf("invalid frequency %q: negative", s)
	}

	return sim.Freq(v * scale), nil
}

// SequencerConfig converts the settings into a sequencer config.
func (s Settings) SequencerConfig() (sequencer.Config, error) {
	cfg := sequencer.Config{
		ResetTime:  s.ResetTime,
		IrqTimeout: s.IrqTimeout,
		DeadTime:   s.DeadTime,
	}

	var err error

	if cfg.StartFreq, err = ParseFreq(s.StartFreq); err != nil {
		return cfg, fmt.Errorf("start_freq: %w", err)
	}

	if cfg.FreqStep, err = ParseFreq(s.FreqStep); err != nil {
		return cfg, fmt.Errorf("freq_step: %w", err)
	}

	if cfg.TargetFreq, err = ParseFreq(s.TargetFreq); err != nil {
		return cfg, fmt.Errorf("target_freq: %w", err)
	}

	if cfg.TargetPolicy, err = sequencer.ParseTargetPolicy(s.TargetPolicy); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// SimDuration parses the duration as simulated seconds.
func (s Settings) SimDuration() (sim.VTimeInSec, error) {
	d, err := time.ParseDuration(s.Duration)
	if err != nil {
		return 0, fmt.Errorf("duration: %w", err)
	}

	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", s.Duration)
	}

	return sim.VTimeInSec(d.Seconds()), nil
}
