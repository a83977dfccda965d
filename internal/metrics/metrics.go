// Package metrics records what the daemon does with its workers.
//
// Components report through the [Collector] interface. [Noop] discards
// everything; [Prometheus] keeps counters in a private registry that can be
// served over HTTP.
package metrics

// Receives daemon events.
type Collector interface {

	// A client session was accepted.
	SessionOpened()

	// A request finished with the given status.
	RequestHandled(kind, status string)

	// A worker process was started.
	WorkerSpawned()

	// A worker process could not be started.
	WorkerSpawnFailed()

	// A worker crashed. signal is empty when the worker died without a report.
	WorkerCrashed(signal string)
}

type noop struct{}

func (noop) SessionOpened()                {}
func (noop) RequestHandled(string, string) {}
func (noop) WorkerSpawned()                {}
func (noop) WorkerSpawnFailed()            {}
func (noop) WorkerCrashed(string)          {}

// Returns a collector that discards everything.
func Noop() Collector {
	return noop{}
}
