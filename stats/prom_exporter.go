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

package stats

import (
	"errors"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/facebook/rtdelay/delaytest"
)

const namespace = "rtdelay"

// PrometheusExporter keeps delay distributions and counters in a prometheus registry
type PrometheusExporter struct {
	registry *prometheus.Registry
	elapsed  prometheus.Histogram
	delayErr prometheus.Histogram
	retries  prometheus.Counter
	invalid  prometheus.Counter
	summary  *prometheus.GaugeVec
}

// NewPrometheusExporter creates a new instance of PrometheusExporter
func NewPrometheusExporter() *PrometheusExporter {
	e := &PrometheusExporter{
		registry: prometheus.NewRegistry(),
		elapsed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "elapsed_seconds",
			Help:      "Measured duration of a requested sleep",
			Buckets:   prometheus.ExponentialBuckets(1e-4, 2, 16),
		}),
		delayErr: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "delay_error_seconds",
			Help:      "How much longer than requested a sleep took",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 2, 20),
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Sleeps resumed after a signal",
		}),
		invalid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_total",
			Help:      "Iterations without a valid delay error",
		}),
		summary: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "delay_error_summary_seconds",
			Help:      "Delay error statistics of the finished run",
		}, []string{"stat"}),
	}
	e.registry.MustRegister(e.elapsed, e.delayErr, e.retries, e.invalid, e.summary)
	return e
}

// Observe implements delaytest.Observer
func (e *PrometheusExporter) Observe(r *delaytest.IterationResult) {
	e.retries.Add(float64(r.Retries))
	if r.ElapsedValid {
		e.elapsed.Observe(r.Elapsed.Seconds())
	}
	if !r.ErrorValid {
		e.invalid.Inc()
		return
	}
	e.delayErr.Observe(r.Error.Seconds())
}

// SetSummary exports statistics of a finished run
func (e *PrometheusExporter) SetSummary(s *delaytest.Summary) {
	for stat, ns := range map[string]float64{
		"mean":   s.MeanNS,
		"stddev": s.StddevNS,
		"min":    s.MinNS,
		"max":    s.MaxNS,
		"maxabs": s.MaxAbsNS,
		"p99":    s.P99NS,
	} {
		e.summary.WithLabelValues(stat).Set(ns / 1e9)
	}
}

// SetCounters exports counters as gauges
func (e *PrometheusExporter) SetCounters(counters Counters) {
	for mkey, mval := range counters {
		promCollector := prometheus.NewGauge(prometheus.GaugeOpts{
			Name: flattenKey(mkey),
			Help: mkey,
		})
		if err := e.registry.Register(promCollector); err != nil {
			are := prometheus.AlreadyRegisteredError{}
			if errors.As(err, &are) {
				promCollector = are.ExistingCollector.(prometheus.Gauge)
			} else {
				log.Errorf("failed to register metric %s %v", mkey, err)
				continue
			}
		}
		promCollector.Set(float64(mval))
	}
}

// Handler serves the registry
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(
		e.registry,
		promhttp.HandlerOpts{
			// Opt into OpenMetrics to support exemplars.
			EnableOpenMetrics: true,
		},
	)
}

// WriteToTextfile writes the registry in the format of node exporter textfile collector
func (e *PrometheusExporter) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, e.registry)
}

func flattenKey(key string) string {
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, ".", "_")
	key = strings.ReplaceAll(key, "-", "_")
	key = strings.ReplaceAll(key, "=", "_")
	key = strings.ReplaceAll(key, "/", "_")
	return key
}
