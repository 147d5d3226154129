package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/wnsched/config"
	"github.com/sarchlab/wnsched/simulation"
)

var runFlags struct {
	frames      int
	seed        int64
	record      string
	clickhouse  string
	trace       string
	spans       string
	monitor     bool
	monitorPort int
	openBrowser bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the cell for a number of frames",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		applyRunFlags(cmd, &cfg)

		s, err := simulation.MakeBuilder().WithConfig(cfg).Build()
		if err != nil {
			return err
		}

		summary, runErr := s.Run(0)
		if err := s.Terminate(); err != nil {
			logrus.Errorf("terminating: %v", err)
		}

		if runErr != nil {
			return runErr
		}

		fmt.Fprintln(cmd.OutOrStdout(), summary)

		return nil
	},
}

func init() {
	f := runCmd.Flags()
	f.IntVar(&runFlags.frames, "frames", 0, "number of frames")
	f.Int64Var(&runFlags.seed, "seed", 0, "seed of every random choice")
	f.StringVar(&runFlags.record, "record", "",
		"record maps and frames into <path>.sqlite3")
	f.StringVar(&runFlags.clickhouse, "clickhouse", "",
		"record into the ClickHouse server at <host:port> instead")
	f.StringVar(&runFlags.trace, "trace", "", "write PDU traces into <path>.csv")
	f.StringVar(&runFlags.spans, "spans", "",
		"export PDU spans as OpenTelemetry JSON into <path>.json")
	f.BoolVar(&runFlags.monitor, "monitor", false, "serve the monitor")
	f.IntVar(&runFlags.monitorPort, "monitor-port", 0, "port of the monitor")
	f.BoolVar(&runFlags.openBrowser, "open-browser", false,
		"open the metrics page of the monitor")
}

// applyRunFlags copies the flags the user has set over the configuration.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()

	if f.Changed("frames") {
		cfg.Simulation.Frames = runFlags.frames
	}

	if f.Changed("seed") {
		cfg.Strategy.Seed = runFlags.seed
	}

	if f.Changed("record") {
		cfg.Output.RecordingPath = runFlags.record
	}

	if f.Changed("clickhouse") {
		cfg.Output.Recorder = config.RecorderClickHouse
		cfg.Output.ClickHouse.Addr = runFlags.clickhouse
	}

	if f.Changed("trace") {
		cfg.Output.TracePath = runFlags.trace
	}

	if f.Changed("spans") {
		cfg.Output.SpanPath = runFlags.spans
	}

	if f.Changed("monitor") {
		cfg.Output.Monitor = runFlags.monitor
	}

	if f.Changed("monitor-port") {
		cfg.Output.MonitorPort = runFlags.monitorPort
	}

	if f.Changed("open-browser") {
		cfg.Output.OpenBrowser = runFlags.openBrowser
	}
}
