// Package metrics emits standardised session and upstream API metrics.
package metrics

import (
	"strconv"
	"time"

	obserrors "github.com/DarwinOsingo/Afrigene/internal/observability/errors"
	"github.com/DarwinOsingo/Afrigene/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess    = "success"
	ResultError      = "error"
	ResultSuperseded = "superseded"
	ResultNoop       = "noop"
)

// SessionMetric captures a session transition (login, logout, rehydrate).
type SessionMetric struct {
	Transition string
	Result     string
	Duration   time.Duration
	Err        error
}

// EmitSessionTransition emits a counter and, when timed, a latency metric.
func EmitSessionTransition(sink statsd.Sink, in SessionMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"transition": in.Transition,
		"result":     in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("session.transition", 1, tags)
	if in.Duration > 0 {
		sink.Timing("session.duration", in.Duration, CloneTags(tags))
	}
}

// APIMetric captures one upstream API call.
type APIMetric struct {
	Operation string
	Status    int
	Duration  time.Duration
	Err       error
}

// EmitAPIRequest emits request counters tagged by operation and status class.
func EmitAPIRequest(sink statsd.Sink, in APIMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"operation":    in.Operation,
		"status_class": StatusClass(in.Status),
	}
	if in.Err != nil {
		tags["error_class"] = obserrors.Classify(in.Err)
	}

	sink.Count("api.request", 1, tags)
	if in.Duration > 0 {
		sink.Timing("api.latency", in.Duration, CloneTags(tags))
	}
}

// EmitNavigation counts guard decisions by outcome and reason.
func EmitNavigation(sink statsd.Sink, outcome, reason string) {
	if sink == nil {
		return
	}
	sink.Count("navigation.decision", 1, map[string]string{
		"outcome": outcome,
		"reason":  reason,
	})
}

// StatusClass buckets an HTTP status into "2xx".."5xx"; zero means no response.
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "none"
	}
	return strconv.Itoa(status/100) + "xx"
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
