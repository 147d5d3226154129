package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "WNSCHED_"

// LookupFunc reads one environment variable.
type LookupFunc func(key string) (string, bool)

type override struct {
	key   string
	apply func(c *Config, value string) error
}

var overrides = []override{
	{"FRAMES", intField(func(c *Config) *int { return &c.Simulation.Frames })},
	{"SEED", func(c *Config, v string) error {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}

		c.Strategy.Seed = seed

		return nil
	}},
	{"DSA", stringField(func(c *Config) *string { return &c.Strategy.DSA })},
	{"APC", stringField(func(c *Config) *string { return &c.Strategy.APC })},
	{"SUB_STRATEGY", stringField(func(c *Config) *string { return &c.Strategy.SubStrategy })},
	{"PF_JITTER", floatField(func(c *Config) *float64 { return &c.Strategy.PFJitter })},
	{"ARQ_MODE", stringField(func(c *Config) *string { return &c.ARQ.Mode })},
	{"WINDOW_SIZE", intField(func(c *Config) *int { return &c.ARQ.WindowSize })},
	{"SEQUENCE_NUMBER_SIZE", intField(func(c *Config) *int { return &c.ARQ.SequenceNumberSize })},
	{"LOSS_PROBABILITY", floatField(func(c *Config) *float64 { return &c.Simulation.LossProbability })},
	{"RECORDER", stringField(func(c *Config) *string { return &c.Output.Recorder })},
	{"CLICKHOUSE_ADDR", stringField(func(c *Config) *string { return &c.Output.ClickHouse.Addr })},
	{"CLICKHOUSE_DATABASE", stringField(func(c *Config) *string { return &c.Output.ClickHouse.Database })},
	{"CLICKHOUSE_USERNAME", stringField(func(c *Config) *string { return &c.Output.ClickHouse.Username })},
	{"CLICKHOUSE_PASSWORD", stringField(func(c *Config) *string { return &c.Output.ClickHouse.Password })},
	{"RECORDING_PATH", stringField(func(c *Config) *string { return &c.Output.RecordingPath })},
	{"SPAN_PATH", stringField(func(c *Config) *string { return &c.Output.SpanPath })},
	{"TRACE_PATH", stringField(func(c *Config) *string { return &c.Output.TracePath })},
	{"MONITOR", boolField(func(c *Config) *bool { return &c.Output.Monitor })},
	{"MONITOR_PORT", intField(func(c *Config) *int { return &c.Output.MonitorPort })},
	{"LOG_LEVEL", stringField(func(c *Config) *string { return &c.Output.LogLevel })},
}

// LoadDotEnv loads the variables of an env file into the process
// environment. A missing file is not an error. Variables that are already
// set win over the file.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "loading %s", path)
	}

	return nil
}

// ApplyEnv overrides fields from WNSCHED_* variables.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	for _, o := range overrides {
		v, found := lookup(EnvPrefix + o.key)
		if !found || v == "" {
			continue
		}

		if err := o.apply(c, v); err != nil {
			return errors.Wrapf(err, "%s%s=%q", EnvPrefix, o.key, v)
		}
	}

	return nil
}

func stringField(f func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*f(c) = v
		return nil
	}
}

func intField(f func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}

		*f(c) = n

		return nil
	}
}

func floatField(f func(*Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}

		*f(c) = x

		return nil
	}
}

func boolField(f func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}

		*f(c) = b

		return nil
	}
}
