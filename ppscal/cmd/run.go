package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/sarchlab/ppscal/sequencer"
	"github.com/sarchlab/ppscal/simulation"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var errRunFailed = errors.New("run failed")

// flagsNotSettings are flags that do not map onto Settings fields.
var flagsNotSettings = map[string]bool{
	"config":   true,
	"env-file": true,
}

func newRunCmd() *cobra.Command {
	defaults := DefaultSettings()

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the calibration loop against a simulated PPS counter.",
		Long: "Run the calibration loop against a simulated PPS counter. " +
			"Settings come from --config, then .env and PPSCAL_* environment " +
			"variables, then flags.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := resolveSettings(cmd)
			if err != nil {
				return err
			}

			return run(cmd.OutOrStdout(), cmd.ErrOrStderr(), settings)
		},
	}

	f := runCmd.Flags()
	f.String("config", "", "YAML file with run settings")
	f.String("env-file", ".env", "dotenv file with PPSCAL_* variables")
	f.String("start-freq", defaults.StartFreq, "initial clock frequency")
	f.String("freq-step", defaults.FreqStep, "frequency added after every round")
	f.String("target-freq", defaults.TargetFreq, "target frequency")
	f.String("target-policy", defaults.TargetPolicy,
		"what to do at the target: ignore, hold or stop")
	f.Int("reset-time", defaults.ResetTime, "ticks the counters are held in reset")
	f.Int("irq-timeout", defaults.IrqTimeout, "ticks to wait for the PPS interrupt")
	f.Int("dead-time", defaults.DeadTime, "holdoff ticks between rounds")
	f.String("bus-freq", defaults.BusFreq, "bus clock frequency")
	f.Uint64("pps-interval", defaults.PPSInterval,
		"bus ticks between arming and the PPS edge")
	f.Bool("no-pps", false, "never raise the PPS interrupt")
	f.Uint64("wait-every", 0, "assert the wait signal every n ticks")
	f.String("duration", defaults.Duration, "simulated time limit, e.g. 10ms")
	f.Bool("parallel-ids", false, "use globally unique instead of sequential IDs")
	f.Bool("monitor", false, "serve the monitoring API")
	f.Int("monitor-port", 0, "port of the monitoring API, random if 0")
	f.Bool("open-monitor", false, "open the monitoring API in a browser")
	f.Bool("record", false, "record rounds and bus transactions to SQLite")
	f.String("output", "", "name of the SQLite file, without extension")
	f.BoolP("verbose", "v", false, "log every phase change")
	f.Bool("log-events", false, "log every simulation event")

	return runCmd
}

func resolveSettings(cmd *cobra.Command) (Settings, error) {
	settings := DefaultSettings()

	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		var err error

		settings, err = LoadFile(settings, configFile)
		if err != nil {
			return settings, err
		}
	}

	envFile, _ := cmd.Flags().GetString("env-file")

	env, err := ReadEnv(envFile, os.Environ())
	if err != nil {
		return settings, err
	}

	settings, err = Overlay(settings, env)
	if err != nil {
		return settings, err
	}

	return Overlay(settings, changedFlags(cmd))
}

func changedFlags(cmd *cobra.Command) map[string]string {
	values := make(map[string]string)

	cmd.Flags().Visit(func(f *pflag.Flag) {
		if flagsNotSettings[f.Name] {
			return
		}

		values[strings.ReplaceAll(f.Name, "-", "_")] = f.Value.String()
	})

	return values
}

func builderFromSettings(s Settings, stderr io.Writer) (simulation.Builder, error) {
	cfg, err := s.SequencerConfig()
	if err != nil {
		return simulation.Builder{}, err
	}

	busFreq, err := ParseFreq(s.BusFreq)
	if err != nil {
		return simulation.Builder{}, fmt.Errorf("bus_freq: %w", err)
	}

	b := simulation.MakeBuilder().
		WithConfig(cfg).
		WithBusFreq(busFreq).
		WithPPSInterval(s.PPSInterval).
		WithWaitEvery(s.WaitEvery)

	if s.NoPPS {
		b = b.WithoutPPS()
	}

	if s.ParallelIDs {
		b = b.WithParallelIDs()
	}

	if s.Monitor || s.OpenMonitor {
		b = b.WithMonitorPort(s.MonitorPort)
		if s.OpenMonitor {
			b = b.WithBrowser()
		}
	} else {
		b = b.WithoutMonitoring()
	}

	if s.Record {
		b = b.WithOutputFileName(s.Output)
	} else {
		b = b.WithoutRecording()
	}

	if s.Verbose {
		b = b.WithLogger(log.New(stderr, "", 0))
	}

	if s.LogEvents {
		b = b.WithEventLogger(log.New(stderr, "", 0))
	}

	return b, nil
}

func run(stdout, stderr io.Writer, s Settings) error {
	limit, err := s.SimDuration()
	if err != nil {
		return err
	}

	b, err := builderFromSettings(s, stderr)
	if err != nil {
		return err
	}

	simu, err := b.Build()
	if err != nil {
		return err
	}
	defer simu.Terminate()

	result, err := simu.Run(limit)
	if err != nil {
		return err
	}

	printResult(stdout, result)

	if result.Terminated && result.Reason == sequencer.ReasonIrqTimeout {
		fmt.Fprintf(stderr, "Terminated at %.9f s: %s\n",
			result.Time, result.Reason)

		return errRunFailed
	}

	return nil
}

func printResult(w io.Writer, r simulation.Result) {
	fmt.Fprintf(w, "%-6s %-14s %-14s %-16s %-16s %-8s\n",
		"round", "time_s", "count_1s", "count_10s", "count_100s", "freq_mhz")

	for _, round := range r.Rounds {
		fmt.Fprintf(w, "%-6d %-14.9f %-14d %-16d %-16d %-8.3f\n",
			round.Round, round.Time,
			round.Count1s, round.Count10s, round.Count100s,
			round.FreqHz/1e6)
	}

	status := "time limit"
	if r.Terminated {
		status = r.Reason.String()
	}

	fmt.Fprintf(w, "rounds=%d freq=%.3fMHz ticks=%d wait_ticks=%d end=%s\n",
		len(r.Rounds), float64(r.Tuning.Freq)/1e6, r.Ticks, r.WaitTicks, status)
}
