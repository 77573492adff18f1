/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package delaytest

import (
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"

	"github.com/facebook/rtdelay/clock"
	"github.com/facebook/rtdelay/sched"
	"github.com/facebook/rtdelay/sleeper"
)

// Config specifies delay test run options
type Config struct {
	Clock          clock.Source        `yaml:"clock"`
	Delay          time.Duration       `yaml:"delay"`
	Iterations     int                 `yaml:"iterations"`
	Retry          sleeper.RetryPolicy `yaml:"retry"`
	Scheduling     sched.Profile       `yaml:"scheduling"`
	Output         string              `yaml:"output"`  // csv export path, empty disables export
	Verdict        string              `yaml:"verdict"` // pass/fail expression over run summary
	MonitoringPort int                 `yaml:"monitoring_port"`
	PromFile       string              `yaml:"prometheus_textfile"`
}

// DefaultConfig returns Config initialized with default values
func DefaultConfig() *Config {
	return &Config{
		Clock:      clock.Monotonic,
		Delay:      10 * time.Millisecond,
		Iterations: 100,
		Retry:      sleeper.RetryPolicy{MaxRetries: 3},
		Scheduling: sched.Profile{Policy: sched.FIFO},
		Output:     "rtdelay.csv",
	}
}

// Validate config is sane
func (c *Config) Validate() error {
	if _, ok := c.Clock.ID(); !ok {
		return fmt.Errorf("unsupported clock %d", c.Clock)
	}
	if c.Delay <= 0 {
		return fmt.Errorf("delay must be greater than zero")
	}
	if c.Iterations <= 0 {
		return fmt.Errorf("iterations must be greater than zero")
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be 0 or positive")
	}
	if c.Scheduling.Policy.String() == "UNKNOWN" {
		return fmt.Errorf("unsupported scheduling policy %d", c.Scheduling.Policy)
	}
	if c.Scheduling.Priority < 0 {
		return fmt.Errorf("priority must be 0 or positive")
	}
	for _, cpu := range c.Scheduling.CPUs {
		if cpu < 0 {
			return fmt.Errorf("cpu index must be 0 or positive, got %d", cpu)
		}
	}
	if c.MonitoringPort < 0 {
		return fmt.Errorf("monitoring_port must be 0 or positive")
	}
	if c.Verdict != "" {
		if _, err := NewVerdict(c.Verdict); err != nil {
			return fmt.Errorf("invalid verdict: %w", err)
		}
	}
	return nil
}

// ReadConfig reads config from the file
func ReadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	cData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = yaml.UnmarshalStrict(cData, &c)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// PrepareConfig prepares final version of config based on defaults, CLI flags and on-disk config, and validates resulting config.
// Only values of flags present in setFlags are taken from flags.
func PrepareConfig(cfgPath string, flags *Config, setFlags map[string]bool) (*Config, error) {
	cfg := DefaultConfig()
	var err error
	warn := func(name string) {
		log.Warningf("overriding %s from CLI flag", name)
	}
	if cfgPath != "" {
		cfg, err = ReadConfig(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("reading config from %q: %w", cfgPath, err)
		}
	}
	if setFlags["clock"] {
		warn("clock")
		cfg.Clock = flags.Clock
	}
	if setFlags["delay"] {
		warn("delay")
		cfg.Delay = flags.Delay
	}
	if setFlags["iterations"] {
		warn("iterations")
		cfg.Iterations = flags.Iterations
	}
	if setFlags["retries"] {
		warn("retries")
		cfg.Retry = flags.Retry
	}
	if setFlags["policy"] {
		warn("policy")
		cfg.Scheduling.Policy = flags.Scheduling.Policy
	}
	if setFlags["priority"] {
		warn("priority")
		cfg.Scheduling.Priority = flags.Scheduling.Priority
	}
	if setFlags["cpus"] {
		warn("cpus")
		cfg.Scheduling.CPUs = flags.Scheduling.CPUs
	}
	if setFlags["reset-on-fork"] {
		warn("reset-on-fork")
		cfg.Scheduling.ResetOnFork = flags.Scheduling.ResetOnFork
	}
	if setFlags["output"] {
		warn("output")
		cfg.Output = flags.Output
	}
	if setFlags["verdict"] {
		warn("verdict")
		cfg.Verdict = flags.Verdict
	}
	if setFlags["monitoringport"] {
		warn("monitoringport")
		cfg.MonitoringPort = flags.MonitoringPort
	}
	if setFlags["promfile"] {
		warn("promfile")
		cfg.PromFile = flags.PromFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	log.Debugf("config: %+v", cfg)
	return cfg, nil
}
