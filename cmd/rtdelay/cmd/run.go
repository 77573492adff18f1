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

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/davecgh/go-spew/spew"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/facebook/rtdelay/clock"
	"github.com/facebook/rtdelay/delaytest"
	"github.com/facebook/rtdelay/sched"
	"github.com/facebook/rtdelay/stats"
	"github.com/facebook/rtdelay/sysinfo"
)

// flags
var (
	runConfigFlag         string
	runClockFlag          string
	runDelayFlag          time.Duration
	runIterationsFlag     int
	runRetriesFlag        int
	runPolicyFlag         string
	runPriorityFlag       int
	runCPUsFlag           []int
	runResetOnForkFlag    bool
	runOutputFlag         string
	runVerdictFlag        string
	runMonitoringPortFlag int
	runPromFileFlag       string
	runWarnErrorFlag      time.Duration
	runFailErrorFlag      time.Duration
)

func init() {
	RootCmd.AddCommand(runCmd)
	defaults := delaytest.DefaultConfig()
	runCmd.Flags().StringVarP(&runConfigFlag, "config", "c", "", "path to the config")
	runCmd.Flags().StringVar(&runClockFlag, "clock", defaults.Clock.String(), "clock to measure against, one of CLOCK_REALTIME, CLOCK_REALTIME_COARSE, CLOCK_MONOTONIC, CLOCK_MONOTONIC_COARSE, CLOCK_MONOTONIC_RAW")
	runCmd.Flags().DurationVarP(&runDelayFlag, "delay", "d", defaults.Delay, "how long to sleep in every iteration")
	runCmd.Flags().IntVarP(&runIterationsFlag, "iterations", "n", defaults.Iterations, "number of sleeps to measure")
	runCmd.Flags().IntVar(&runRetriesFlag, "retries", defaults.Retry.MaxRetries, "how many times to resume a sleep interrupted by a signal")
	runCmd.Flags().StringVar(&runPolicyFlag, "policy", defaults.Scheduling.Policy.String(), "scheduling policy, one of SCHED_FIFO, SCHED_RR, SCHED_OTHER")
	runCmd.Flags().IntVar(&runPriorityFlag, "priority", defaults.Scheduling.Priority, "scheduling priority, 0 means the highest allowed by the policy")
	runCmd.Flags().IntSliceVar(&runCPUsFlag, "cpus", defaults.Scheduling.CPUs, "cpus to pin the measuring thread to")
	runCmd.Flags().BoolVar(&runResetOnForkFlag, "reset-on-fork", defaults.Scheduling.ResetOnFork, "don't let threads spawned by the measuring thread inherit its policy")
	runCmd.Flags().StringVarP(&runOutputFlag, "output", "o", defaults.Output, "csv file to export results to, empty disables export")
	runCmd.Flags().StringVar(&runVerdictFlag, "verdict", defaults.Verdict, "pass/fail expression over run summary. "+delaytest.VerdictHelp)
	runCmd.Flags().IntVar(&runMonitoringPortFlag, "monitoringport", defaults.MonitoringPort, "port to serve /counters and /metrics on during the run, 0 disables it")
	runCmd.Flags().StringVar(&runPromFileFlag, "promfile", defaults.PromFile, "write prometheus metrics of the run to this file")
	runCmd.Flags().DurationVar(&runWarnErrorFlag, "warn-error", 100*time.Microsecond, "warn when delay error exceeds this")
	runCmd.Flags().DurationVar(&runFailErrorFlag, "fail-error", time.Millisecond, "fail when delay error exceeds this")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Elevate a thread to real-time scheduling and measure sleep accuracy",
	Run: func(c *cobra.Command, _ []string) {
		ConfigureVerbosity()
		setFlags := make(map[string]bool)
		c.Flags().Visit(func(f *pflag.Flag) {
			setFlags[f.Name] = true
		})
		flags, err := runFlagsConfig()
		if err != nil {
			log.Fatal(err)
		}
		cfg, err := delaytest.PrepareConfig(runConfigFlag, flags, setFlags)
		if err != nil {
			log.Fatal(err)
		}
		failed, err := runDelayTest(cfg)
		if err != nil {
			log.Fatalf("measurement failed: %v", err)
		}
		if failed > 0 {
			os.Exit(1)
		}
	},
}

// runFlagsConfig returns Config holding values of CLI flags
func runFlagsConfig() (*delaytest.Config, error) {
	source, err := clock.ParseSource(runClockFlag)
	if err != nil {
		return nil, err
	}
	policy, err := sched.ParsePolicy(runPolicyFlag)
	if err != nil {
		return nil, err
	}
	cfg := &delaytest.Config{
		Clock:      source,
		Delay:      runDelayFlag,
		Iterations: runIterationsFlag,
		Scheduling: sched.Profile{
			Policy:      policy,
			Priority:    runPriorityFlag,
			CPUs:        runCPUsFlag,
			ResetOnFork: runResetOnForkFlag,
		},
		Output:         runOutputFlag,
		Verdict:        runVerdictFlag,
		MonitoringPort: runMonitoringPortFlag,
		PromFile:       runPromFileFlag,
	}
	cfg.Retry.MaxRetries = runRetriesFlag
	return cfg, nil
}

func logSystem(cfg *delaytest.Config) {
	id, err := sysinfo.Collect()
	if err != nil {
		log.Warningf("failed to identify the system: %v", err)
	} else {
		log.Infof("running on %s", id)
		supported, err := sysinfo.SupportsSchedAttr(id.KernelVersion)
		if err != nil {
			log.Warning(err)
		} else if !supported {
			log.Warningf("kernel %s is older than %s, sched_setattr is not available", id.KernelVersion, sysinfo.MinSchedAttrKernel)
		}
	}
	if d, err := clock.SystemDiscipline(); err != nil {
		log.Warningf("failed to read kernel clock discipline: %v", err)
	} else {
		log.Infof("system clock is %s", d)
	}
	if log.IsLevelEnabled(log.DebugLevel) {
		log.Debugf("effective config:\n%s", spew.Sdump(cfg))
	}
}

// progress prints the last iteration on a terminal
type progress struct {
	total int
}

// Observe implements delaytest.Observer
func (p *progress) Observe(r *delaytest.IterationResult) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return
	}
	fmt.Printf("\u001b[1000D")
	fmt.Printf("%d/%d %s", r.Index+1, p.total, r)
	if r.Index+1 == p.total {
		fmt.Println()
	}
}

// runDelayTest runs measurement and reports summary. It returns number of failed checks.
func runDelayTest(cfg *delaytest.Config) (int, error) {
	logSystem(cfg)

	st := stats.NewJSONStats()
	prom := stats.NewPrometheusExporter()
	opts := []delaytest.Option{
		delaytest.WithStats(st),
		delaytest.WithObserver(prom),
		delaytest.WithObserver(&progress{total: cfg.Iterations}),
	}
	if cfg.MonitoringPort != 0 {
		st.Handle("/metrics", prom.Handler())
		go st.Start(cfg.MonitoringPort, time.Second)
	}
	if cfg.Output != "" {
		exporter, err := delaytest.NewCSVFileExporter(cfg.Output)
		if err != nil {
			return 0, err
		}
		opts = append(opts, delaytest.WithExporter(exporter))
	}
	session, err := delaytest.NewSystem(cfg, opts...)
	if err != nil {
		return 0, err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), unix.SIGINT, unix.SIGTERM)
	defer cancel()
	runErr := session.Run(ctx)

	if cfg.PromFile != "" {
		if err := st.CollectSysStats(time.Second); err != nil {
			log.Warningf("failed to get system metrics %s", err)
		}
		if summary := session.Summary(); summary != nil {
			prom.SetSummary(summary)
		}
		prom.SetCounters(st.GetCounters())
		if err := prom.WriteToTextfile(cfg.PromFile); err != nil {
			log.Errorf("writing prometheus metrics to %q: %v", cfg.PromFile, err)
		}
	}
	if runErr != nil {
		return 0, runErr
	}

	summary := session.Summary()
	toRun := []checker{
		checkMaxAbsError(runWarnErrorFlag, runFailErrorFlag),
		checkP99Error(runWarnErrorFlag, runFailErrorFlag),
		checkInvalid,
		checkExhausted,
	}
	if cfg.Verdict != "" {
		v, err := delaytest.NewVerdict(cfg.Verdict)
		if err != nil {
			return 0, err
		}
		toRun = append(toRun, checkVerdict(v))
	}
	fmt.Printf("%s with %s, %s\n", cfg.Clock, session.Applied().Profile, summary)
	return runCheckers(summary, toRun), nil
}
