/*
 *  Copyright (c) 2025, WSO2 LLC. (http://www.wso2.org) All Rights Reserved.
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 *
 */

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	namespace = "syssy"
)

var (
	once     sync.Once
	registry *prometheus.Registry

	// Metrics default to noops so packages can record before Init()
	HTTPRequestsTotal          CounterVec   = noopCounterVec{}
	HTTPRequestDurationSeconds HistogramVec = noopHistogramVec{}
	ConcurrentRequests         Gauge        = noopGauge{}

	AccessDecisionsTotal CounterVec = noopCounterVec{}

	SnapshotBuildDurationSeconds Histogram  = noopHistogram{}
	SnapshotPlugins              Gauge      = noopGauge{}
	SnapshotSignTotal            CounterVec = noopCounterVec{}

	UpdateChecksTotal    CounterVec = noopCounterVec{}
	OptionWritesTotal    CounterVec = noopCounterVec{}
	PanicRecoveriesTotal CounterVec = noopCounterVec{}

	Up Gauge = noopGauge{}
)

func initMetrics() {
	HTTPRequestsTotal = newCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDurationSeconds = newHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		},
		[]string{"method", "route"},
	)

	ConcurrentRequests = newGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "concurrent_requests",
			Help:      "Number of requests currently being served",
		},
	)

	AccessDecisionsTotal = newCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_decisions_total",
			Help:      "Access gate decisions by outcome and reason",
		},
		[]string{"decision", "reason"},
	)

	SnapshotBuildDurationSeconds = newHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snapshot_build_duration_seconds",
			Help:      "Time to collect the site snapshot",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
	)

	SnapshotPlugins = newGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_plugins",
			Help:      "Number of plugins in the last snapshot",
		},
	)

	SnapshotSignTotal = newCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_sign_total",
			Help:      "Snapshot signing attempts by result",
		},
		[]string{"result"},
	)

	UpdateChecksTotal = newCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "update_checks_total",
			Help:      "Update feed checks by result",
		},
		[]string{"result"},
	)

	OptionWritesTotal = newCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "option_writes_total",
			Help:      "Options store writes by option and operation",
		},
		[]string{"option", "operation"},
	)

	PanicRecoveriesTotal = newCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "panic_recoveries_total",
			Help:      "Total number of panic recoveries",
		},
		[]string{"component"},
	)

	Up = newGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "up",
			Help:      "Whether the agent is up",
		},
	)
}

func initRegistry() {
	registry = prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	register(HTTPRequestsTotal)
	register(HTTPRequestDurationSeconds)
	register(ConcurrentRequests)
	register(AccessDecisionsTotal)
	register(SnapshotBuildDurationSeconds)
	register(SnapshotPlugins)
	register(SnapshotSignTotal)
	register(UpdateChecksTotal)
	register(OptionWritesTotal)
	register(PanicRecoveriesTotal)
	register(Up)

	Up.Set(1)
}

// Init initializes the metrics registry with all collectors.
// This must be called after SetEnabled() has been called.
func Init() *prometheus.Registry {
	once.Do(func() {
		initMetrics()

		if !Enabled {
			registry = prometheus.NewRegistry()
			return
		}
		initRegistry()
	})

	return registry
}

// GetRegistry returns the prometheus registry
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return Init()
	}
	return registry
}
