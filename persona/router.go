// Package persona maps a step's persona label to the named queue that
// will carry its StepTask. Routing is a pure function over a static
// table: no per-task mutation, no learned state.
package persona

import "strings"

// DefaultQueue is the destination for personas absent from the routing
// table.
const DefaultQueue = "default"

// Router maps persona names to queue names using a static table set at
// construction time. It is safe for concurrent reads; callers that want
// to change routing at startup should build a new Router rather than
// mutate one in place.
type Router struct {
	table map[string]string
}

// NewRouter builds a Router from table, copying it so later mutation of
// the caller's map cannot affect routing.
func NewRouter(table map[string]string) *Router {
	cp := make(map[string]string, len(table))
	for k, v := range table {
		cp[k] = v
	}
	return &Router{table: cp}
}

// DefaultTable is the out-of-the-box persona-to-queue mapping: each
// known persona gets its own queue, named after the persona in
// lowercase without its "_AI" suffix.
func DefaultTable() map[string]string {
	return map[string]string{
		"CODER_AI":   "coder",
		"AUDITOR_AI": "auditor",
		"PO_AI":      "po",
	}
}

// NewDefaultRouter builds a Router from DefaultTable.
func NewDefaultRouter() *Router {
	return NewRouter(DefaultTable())
}

// Route resolves the queue name for a task given its persona. args and
// kwargs are accepted for parity with the task-dispatch call signature
// (task_name, args, kwargs, options) but are not currently consulted by
// routing; only persona, read from kwargs, is.
func (r *Router) Route(taskName string, args []string, kwargs map[string]string, options map[string]string) string {
	persona := strings.TrimSpace(kwargs["persona"])
	if persona == "" {
		return DefaultQueue
	}
	if queue, ok := r.table[strings.ToUpper(persona)]; ok {
		return queue
	}
	return DefaultQueue
}

// QueueForPersona is a convenience wrapper over Route for callers that
// already have a bare persona string rather than a full task-dispatch
// call.
func (r *Router) QueueForPersona(persona string) string {
	if queue, ok := r.table[strings.ToUpper(persona)]; ok {
		return queue
	}
	return DefaultQueue
}
