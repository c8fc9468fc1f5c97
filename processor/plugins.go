package processor

import "sync"

var (
	registryLock      sync.Mutex
	registeredPlugins []namedProcessor
)

type namedProcessor struct {
	name string
	proc Processor
}

func init() {
	RegisterProcessor("equality", GenerateEquality)
}

// RegisterProcessor registers the given processor under the given name. The
// equality generator is registered as "equality". Registering a name again
// replaces the earlier processor but keeps its place in the order.
func RegisterProcessor(name string, p Processor) {
	registryLock.Lock()
	defer registryLock.Unlock()
	for i := range registeredPlugins {
		if registeredPlugins[i].name == name {
			registeredPlugins[i].proc = p
			return
		}
	}
	registeredPlugins = append(registeredPlugins, namedProcessor{name: name, proc: p})
}

// AllRegisteredProcessors returns the list of all registered processors, in
// the order they were registered.
func AllRegisteredProcessors() []Processor {
	registryLock.Lock()
	defer registryLock.Unlock()
	procs := make([]Processor, len(registeredPlugins))
	for i, p := range registeredPlugins {
		procs[i] = p.proc
	}
	return procs
}

// RegisteredProcessorNames returns the names of all registered processors, in
// the order they were registered.
func RegisteredProcessorNames() []string {
	registryLock.Lock()
	defer registryLock.Unlock()
	names := make([]string, len(registeredPlugins))
	for i, p := range registeredPlugins {
		names[i] = p.name
	}
	return names
}
