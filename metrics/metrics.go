// Package metrics is the pluggable instrumentation surface of the provider
// layer.
package metrics

import "time"

// Recorder counts session events and times request round-trips.
type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}
