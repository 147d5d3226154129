// Package config loads the parameters of a scheduling simulation.
//
// Values start from Default, are overlaid by a YAML file and finally by
// WNSCHED_* environment variables. A .env file in the working directory is
// loaded before the environment is read.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sarchlab/wnsched/arq"
	"github.com/sarchlab/wnsched/scheduling"
	"github.com/sarchlab/wnsched/scheduling/strategy"
	"github.com/sarchlab/wnsched/sim"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is the root of the configuration file.
type Config struct {
	ARQ         ARQ       `yaml:"arq"`
	Map         Map       `yaml:"map"`
	Strategy    Strategy  `yaml:"strategy"`
	BaseStation Station   `yaml:"baseStation"`
	PhyModes    []PhyMode `yaml:"phyModes"`
	Users       []User    `yaml:"users"`
	Simulation  SimParams `yaml:"simulation"`
	Output      Output    `yaml:"output"`
}

// ARQ configures the link layer between the base station and every user.
type ARQ struct {
	Mode               string  `yaml:"mode"`
	WindowSize         int     `yaml:"windowSize"`
	SequenceNumberSize int     `yaml:"sequenceNumberSize"`
	ResendTimeout      float64 `yaml:"resendTimeout"`
	BufferSize         int     `yaml:"bufferSize"`
}

// Map sets the dimensions of one scheduling map.
type Map struct {
	NumberOfSubChannels int     `yaml:"numberOfSubChannels"`
	NumberOfTimeSlots   int     `yaml:"numberOfTimeSlots"`
	NumSpatialLayers    int     `yaml:"numSpatialLayers"`
	SlotLength          float64 `yaml:"slotLength"`
	SymbolDuration      float64 `yaml:"symbolDuration"`
	SubCarriers         int     `yaml:"subCarriersPerSubChannel"`
}

// Strategy selects the algorithms of the scheduler.
type Strategy struct {
	DSA               string  `yaml:"dsa"`
	APC               string  `yaml:"apc"`
	SubStrategy       string  `yaml:"subStrategy"`
	ExcludeTooLowSINR bool    `yaml:"excludeTooLowSINR"`
	AllowSegmentation bool    `yaml:"allowSegmentation"`
	MinSegmentBits    int     `yaml:"minSegmentBits"`
	PFJitter          float64 `yaml:"pfJitter"`
	PFHistoryWeight   float64 `yaml:"pfHistoryWeight"`
	Seed              int64   `yaml:"seed"`
	FlatCQI           CQI     `yaml:"flatCQI"`
}

// CQI is a channel estimate in dB and dBm.
type CQI struct {
	PathLoss     float64 `yaml:"pathLoss"`
	Interference float64 `yaml:"interference"`
}

// Station is the base station.
type Station struct {
	ID    string                       `yaml:"id"`
	Power scheduling.PowerCapabilities `yaml:"power"`
}

// PhyMode describes one modulation and coding scheme.
type PhyMode struct {
	Name       string  `yaml:"name"`
	Modulation string  `yaml:"modulation"`
	CodeRate   float64 `yaml:"codeRate"`
	MinSINR    float64 `yaml:"minSINR"`
}

// User is a terminal attached to the base station.
type User struct {
	ID          string                       `yaml:"id"`
	Downlink    CQI                          `yaml:"downlink"`
	Uplink      CQI                          `yaml:"uplink"`
	Power       scheduling.PowerCapabilities `yaml:"power"`
	Unreachable bool                         `yaml:"unreachable"`
	Traffic     Traffic                      `yaml:"traffic"`
}

// Traffic is the constant-bit-rate load offered on one connection.
type Traffic struct {
	DownlinkPDUsPerFrame int `yaml:"downlinkPDUsPerFrame"`
	UplinkPDUsPerFrame   int `yaml:"uplinkPDUsPerFrame"`
	PDUBits              int `yaml:"pduBits"`
	Priority             int `yaml:"priority"`
}

// SimParams controls the length and the link model of a run.
type SimParams struct {
	Frames          int     `yaml:"frames"`
	LossProbability float64 `yaml:"lossProbability"`
	ACKDelay        float64 `yaml:"ackDelay"`
}

// Recording backends.
const (
	RecorderSQLite     = "sqlite"
	RecorderClickHouse = "clickhouse"
)

// Output controls recording, monitoring and logging.
type Output struct {
	// Recorder is "sqlite", which writes RecordingPath + ".sqlite3" when the
	// path is set, or "clickhouse".
	Recorder      string     `yaml:"recorder"`
	ClickHouse    ClickHouse `yaml:"clickhouse"`
	RecordingPath string     `yaml:"recordingPath"`
	TracePath     string     `yaml:"tracePath"`
	SpanPath      string     `yaml:"spanPath"`
	Monitor       bool       `yaml:"monitor"`
	MonitorPort   int        `yaml:"monitorPort"`
	OpenBrowser   bool       `yaml:"openBrowser"`
	LogLevel      string     `yaml:"logLevel"`
}

// ClickHouse locates the server of the clickhouse recorder.
type ClickHouse struct {
	Addr      string `yaml:"addr"`
	Database  string `yaml:"database"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	BatchSize int    `yaml:"batchSize"`
}

// Load builds a Config from the defaults, the file at path (if not empty)
// and the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrapf(err, "reading config %s", path)
		}

		cfg, err = Parse(data)
		if err != nil {
			return cfg, errors.Wrapf(err, "parsing config %s", path)
		}
	}

	if err := LoadDotEnv(".env"); err != nil {
		return cfg, err
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Parse overlays a YAML document on the defaults. Unknown keys are errors.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil {
		return cfg, errors.Wrap(err, "decoding yaml")
	}

	return cfg, nil
}

// Marshal renders the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(c); err != nil {
		return nil, errors.Wrap(err, "encoding yaml")
	}

	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "encoding yaml")
	}

	return buf.Bytes(), nil
}

// Validate checks every section and reports all the problems at once.
func (c Config) Validate() error {
	var problems []string

	add := func(err error) {
		if err != nil {
			problems = append(problems, err.Error())
		}
	}

	add(c.ARQConfig().Validate(c.ARQMode()))

	if c.ARQ.BufferSize <= 0 {
		add(&scheduling.ConfigError{
			Field: "arq.bufferSize", Reason: "must be positive"})
	}

	add(c.validateMap())
	add(c.validateStrategy())
	add(c.BaseStation.Power.Validate())

	if c.BaseStation.ID == "" {
		add(&scheduling.ConfigError{
			Field: "baseStation.id", Reason: "must not be empty"})
	}

	if _, err := c.PhyModeMapper(); err != nil {
		add(err)
	}

	add(c.validateUsers())
	add(c.validateSimulation())

	if _, err := logrus.ParseLevel(c.Output.LogLevel); err != nil {
		add(&scheduling.ConfigError{
			Field: "output.logLevel", Reason: err.Error()})
	}

	add(c.validateRecorder())

	if c.Output.Monitor && (c.Output.MonitorPort < 0 ||
		c.Output.MonitorPort > 65535) {
		add(&scheduling.ConfigError{
			Field:  "output.monitorPort",
			Reason: fmt.Sprintf("%d is not a port", c.Output.MonitorPort),
		})
	}

	if len(problems) == 0 {
		return nil
	}

	return errors.Errorf("invalid configuration:\n  %s",
		strings.Join(problems, "\n  "))
}

func (c Config) validateMap() error {
	var problems []string

	m := c.Map
	if m.NumberOfSubChannels <= 0 {
		problems = append(problems, "map.numberOfSubChannels must be positive")
	}

	if m.NumberOfTimeSlots <= 0 {
		problems = append(problems, "map.numberOfTimeSlots must be positive")
	}

	if m.NumSpatialLayers <= 0 {
		problems = append(problems, "map.numSpatialLayers must be positive")
	}

	if !(m.SlotLength > 0) {
		problems = append(problems, "map.slotLength must be positive")
	}

	if !(m.SymbolDuration > 0) {
		problems = append(problems, "map.symbolDuration must be positive")
	}

	if m.SubCarriers <= 0 {
		problems = append(problems,
			"map.subCarriersPerSubChannel must be positive")
	}

	return joined(problems)
}

func (c Config) validateStrategy() error {
	cfg := c.StrategyConfig(strategy.MasterTx)

	_, err := strategy.NewStrategy(cfg, nil, nil)
	if err != nil {
		return err
	}

	if c.Strategy.MinSegmentBits <= 0 {
		return &scheduling.ConfigError{
			Field: "strategy.minSegmentBits", Reason: "must be positive"}
	}

	return nil
}

func (c Config) validateUsers() error {
	var problems []string

	seen := make(map[string]bool)
	for i, u := range c.Users {
		switch {
		case u.ID == "":
			problems = append(problems,
				fmt.Sprintf("users[%d].id must not be empty", i))
		case u.ID == c.BaseStation.ID:
			problems = append(problems,
				fmt.Sprintf("users[%d].id %q clashes with the base station", i, u.ID))
		case seen[u.ID]:
			problems = append(problems,
				fmt.Sprintf("users[%d].id %q is duplicated", i, u.ID))
		}

		seen[u.ID] = true

		if err := u.Power.Validate(); err != nil {
			problems = append(problems,
				fmt.Sprintf("users[%d]: %v", i, err))
		}

		t := u.Traffic
		if t.PDUBits <= 0 {
			problems = append(problems,
				fmt.Sprintf("users[%d].traffic.pduBits must be positive", i))
		}

		if t.DownlinkPDUsPerFrame < 0 || t.UplinkPDUsPerFrame < 0 {
			problems = append(problems,
				fmt.Sprintf("users[%d].traffic rates must not be negative", i))
		}

		if t.Priority < 0 {
			problems = append(problems,
				fmt.Sprintf("users[%d].traffic.priority must not be negative", i))
		}
	}

	return joined(problems)
}

func (c Config) validateSimulation() error {
	var problems []string

	s := c.Simulation
	if s.Frames <= 0 {
		problems = append(problems, "simulation.frames must be positive")
	}

	if s.LossProbability < 0 || s.LossProbability >= 1 {
		problems = append(problems,
			"simulation.lossProbability must be in [0, 1)")
	}

	if s.ACKDelay < 0 {
		problems = append(problems, "simulation.ackDelay must not be negative")
	}

	return joined(problems)
}

func (c Config) validateRecorder() error {
	o := c.Output

	switch o.Recorder {
	case RecorderSQLite:
		return nil
	case RecorderClickHouse:
		if o.ClickHouse.Addr == "" {
			return errors.New("output.clickhouse.addr must be set for the clickhouse recorder")
		}

		if o.ClickHouse.BatchSize < 0 {
			return errors.New("output.clickhouse.batchSize must not be negative")
		}

		return nil
	}

	return errors.Errorf("output.recorder %q is neither %s nor %s",
		o.Recorder, RecorderSQLite, RecorderClickHouse)
}

func joined(problems []string) error {
	if len(problems) == 0 {
		return nil
	}

	return errors.New(strings.Join(problems, "; "))
}

// FrameDuration is the length of one frame, a downlink phase followed by an
// uplink phase.
func (c Config) FrameDuration() sim.VTimeInSec {
	return sim.VTimeInSec(
		2 * float64(c.Map.NumberOfTimeSlots) * c.Map.SlotLength)
}

// ARQMode returns the retransmission scheme.
func (c Config) ARQMode() arq.Mode {
	return arq.Mode(c.ARQ.Mode)
}

// ARQConfig converts the ARQ section.
func (c Config) ARQConfig() arq.Config {
	return arq.Config{
		WindowSize:         c.ARQ.WindowSize,
		SequenceNumberSize: c.ARQ.SequenceNumberSize,
		ResendTimeout:      sim.VTimeInSec(c.ARQ.ResendTimeout),
	}
}

// StrategyConfig converts the map and strategy sections for a scheduler of
// the given role. The own ID is always the base station.
func (c Config) StrategyConfig(role strategy.Role) strategy.Config {
	s := c.Strategy

	return strategy.Config{
		Role:              role,
		OwnID:             scheduling.UserID(c.BaseStation.ID),
		NumSubChannels:    c.Map.NumberOfSubChannels,
		NumTimeSlots:      c.Map.NumberOfTimeSlots,
		NumSpatialLayers:  c.Map.NumSpatialLayers,
		SlotLength:        c.Map.SlotLength,
		DSA:               s.DSA,
		APC:               s.APC,
		SubStrategy:       s.SubStrategy,
		ExcludeTooLowSINR: s.ExcludeTooLowSINR,
		FlatCQI:           s.FlatCQI.ChannelQuality(),
		AllowSegmentation: s.AllowSegmentation,
		MinSegmentBits:    s.MinSegmentBits,
		PFJitter:          s.PFJitter,
		PFHistoryWeight:   s.PFHistoryWeight,
		Seed:              s.Seed,
	}
}

// PhyModeMapper builds the PHY modes with the map's OFDM parameters.
func (c Config) PhyModeMapper() (*scheduling.PhyModeMapper, error) {
	if !(c.Map.SymbolDuration > 0) || c.Map.SubCarriers <= 0 {
		return nil, &scheduling.ConfigError{
			Field:  "phyModes",
			Reason: "symbol duration and subcarriers must be positive",
		}
	}

	modes := make([]*scheduling.PhyMode, 0, len(c.PhyModes))
	for _, pm := range c.PhyModes {
		mod, err := scheduling.ParseModulation(pm.Modulation)
		if err != nil {
			return nil, errors.Wrapf(err, "phy mode %s", pm.Name)
		}

		modes = append(modes, scheduling.NewPhyMode(
			pm.Name, mod, pm.CodeRate,
			c.Map.SubCarriers, c.Map.SymbolDuration,
			scheduling.Ratio(pm.MinSINR)))
	}

	return scheduling.NewPhyModeMapper(modes...)
}

// LogLevel returns the parsed log level, or Info if it cannot be parsed.
func (c Config) LogLevel() logrus.Level {
	lvl, err := logrus.ParseLevel(c.Output.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}

	return lvl
}

// ChannelQuality converts the estimate.
func (q CQI) ChannelQuality() scheduling.ChannelQuality {
	return scheduling.ChannelQuality{
		PathLoss:     scheduling.Ratio(q.PathLoss),
		Interference: scheduling.Power(q.Interference),
	}
}
