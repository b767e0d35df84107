package observability

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

type Metrics struct {
	apiRequests          *CounterVec
	apiReqTotal          *Counter
	apiReqError          *Counter
	flagEvaluation       *CounterVec
	experimentAssignment *CounterVec
	experimentExposure   *CounterVec
	experimentConversion *CounterVec
	snapshotPublished    *Counter
	rejectedEvents       *CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return true
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func Current() *Metrics {
	return instance
}

func Init() *Metrics {
	initOnce.Do(func() {
		instance = &Metrics{
			apiRequests: NewCounterVec(
				"beacon_api_requests_total",
				"API requests by route, method and status.",
				[]string{"route", "method", "status"},
			),
			apiReqTotal: NewCounter(
				"beacon_api_requests_all_total",
				"All API requests.",
			),
			apiReqError: NewCounter(
				"beacon_api_request_errors_total",
				"API requests that ended in a 4xx/5xx.",
			),
			flagEvaluation: NewCounterVec(
				"beacon_flag_evaluation_total",
				"Flag evaluations by flag and outcome.",
				[]string{"flag", "result"},
			),
			experimentAssignment: NewCounterVec(
				"beacon_experiment_assignment_total",
				"Variant assignments by experiment and variant.",
				[]string{"experiment", "variant"},
			),
			experimentExposure: NewCounterVec(
				"beacon_experiment_exposure_total",
				"First exposures by experiment and variant.",
				[]string{"experiment", "variant"},
			),
			experimentConversion: NewCounterVec(
				"beacon_experiment_conversion_total",
				"First conversions by experiment and variant.",
				[]string{"experiment", "variant"},
			),
			snapshotPublished: NewCounter(
				"beacon_snapshot_published_total",
				"Snapshot swaps published by admin writes.",
			),
			rejectedEvents: NewCounterVec(
				"beacon_rejected_events_total",
				"Exposure/conversion events rejected by lifecycle state.",
				[]string{"experiment", "reason"},
			),
		}
	})
	return instance
}

func (m *Metrics) IncAPIRequest(route, method string, status int) {
	if m == nil {
		return
	}
	m.apiReqTotal.Inc()
	if status >= 400 {
		m.apiReqError.Inc()
	}
	m.apiRequests.Inc(route, method, fmt.Sprintf("%d", status))
}

func (m *Metrics) IncFlagEvaluation(flag string, enabled bool) {
	if m == nil {
		return
	}
	result := "off"
	if enabled {
		result = "on"
	}
	m.flagEvaluation.Inc(orUnknown(flag), result)
}

func (m *Metrics) IncExperimentAssignment(experiment, variant string) {
	if m == nil {
		return
	}
	m.experimentAssignment.Inc(orUnknown(experiment), orUnknown(variant))
}

func (m *Metrics) IncExperimentExposure(experiment, variant string) {
	if m == nil {
		return
	}
	m.experimentExposure.Inc(orUnknown(experiment), orUnknown(variant))
}

func (m *Metrics) IncExperimentConversion(experiment, variant string) {
	if m == nil {
		return
	}
	m.experimentConversion.Inc(orUnknown(experiment), orUnknown(variant))
}

func (m *Metrics) IncSnapshotPublished() {
	if m == nil {
		return
	}
	m.snapshotPublished.Inc()
}

func (m *Metrics) IncRejectedEvent(experiment, reason string) {
	if m == nil {
		return
	}
	m.rejectedEvents.Inc(orUnknown(experiment), orUnknown(reason))
}

func orUnknown(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests,
		m.apiReqTotal,
		m.apiReqError,
		m.flagEvaluation,
		m.experimentAssignment,
		m.experimentExposure,
		m.experimentConversion,
		m.snapshotPublished,
		m.rejectedEvents,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

type CounterVec struct {
	name       string
	help       string
	labelNames []string
	mu         sync.RWMutex
	values     map[string]float64
}

func NewCounterVec(name, help string, labels []string) *CounterVec {
	return &CounterVec{name: name, help: help, labelNames: labels, values: map[string]float64{}}
}

func (c *CounterVec) Inc(values ...string) {
	if c == nil {
		return
	}
	lbl := labelString(c.labelNames, values)
	c.mu.Lock()
	c.values[lbl]++
	c.mu.Unlock()
}

func (c *CounterVec) Value(values ...string) float64 {
	if c == nil {
		return 0
	}
	lbl := labelString(c.labelNames, values)
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[lbl]
}

func (c *CounterVec) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", c.name, c.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s counter\n", c.name); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for k, v := range c.values {
		if _, err := fmt.Fprintf(w, "%s%s %f\n", c.name, k, v); err != nil {
			return err
		}
	}
	return nil
}

type Counter struct {
	name string
	help string
	mu   sync.RWMutex
	val  float64
}

func NewCounter(name, help string) *Counter {
	return &Counter{name: name, help: help}
}

func (c *Counter) Inc() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.val++
	c.mu.Unlock()
}

func (c *Counter) Value() float64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.val
}

func (c *Counter) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", c.name, c.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s counter\n", c.name); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, err := fmt.Fprintf(w, "%s %f\n", c.name, c.val)
	return err
}

func labelString(names, values []string) string {
	if len(names) == 0 {
		return ""
	}
	parts := make([]string, 0, len(names))
	for i, name := range names {
		val := ""
		if i < len(values) {
			val = values[i]
		}
		val = strings.ReplaceAll(val, `"`, `\"`)
		parts = append(parts, fmt.Sprintf("%s=%q", name, val))
	}
	return "{" + strings.Join(parts, ",") + "}"
}
