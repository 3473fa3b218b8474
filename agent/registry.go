package agent

import (
	"sort"

	"github.com/agerun/agerun/data"
	"github.com/agerun/agerun/method"
)

// Registry owns every live agent of a runtime. Ids are allocated by a
// monotonically increasing counter that is never reused within a run;
// loading persisted agents advances the counter past the highest id
// observed.
type Registry struct {
	agents map[int64]*Agent
	nextID int64
}

// NewRegistry creates an empty registry with the allocator at 1.
func NewRegistry() *Registry {
	return &Registry{
		agents: make(map[int64]*Agent),
		nextID: 1,
	}
}

// Create allocates an id and registers a new active agent bound to meth.
// The given context map's entries are shallow-copied into the agent's
// own context, which is then frozen; a nil context yields an empty one.
// Returns nil when the context contains nested containers (deep copy is
// not provided).
func (r *Registry) Create(meth *method.Method, context *data.Map) *Agent {
	if meth == nil {
		return nil
	}

	ownContext := data.NewMap()
	if context != nil {
		copied := data.ShallowCopy(context)
		if copied == nil {
			return nil
		}
		ownContext = copied.(*data.Map)
	}

	a := &Agent{
		ID:         r.nextID,
		Method:     meth,
		Memory:     data.NewMap(),
		Context:    ownContext,
		Persistent: meth.Persistent,
		Active:     true,
	}
	r.nextID++

	// The agent owns its memory and context maps
	data.TakeOwnership(a.Memory, a)
	data.TakeOwnership(a.Context, a)

	r.agents[a.ID] = a
	return a
}

// CreateWithID registers an agent under a specific id, used when loading
// persisted agents. It fails when the id is taken or not positive. The
// allocator is advanced past the id.
func (r *Registry) CreateWithID(id int64, meth *method.Method, memory *data.Map, context *data.Map) *Agent {
	if meth == nil || id < 1 {
		return nil
	}
	if _, taken := r.agents[id]; taken {
		return nil
	}
	if memory == nil {
		memory = data.NewMap()
	}
	if context == nil {
		context = data.NewMap()
	}

	a := &Agent{
		ID:         id,
		Method:     meth,
		Memory:     memory,
		Context:    context,
		Persistent: meth.Persistent,
		Active:     true,
	}
	data.TakeOwnership(a.Memory, a)
	data.TakeOwnership(a.Context, a)

	r.agents[id] = a
	if id >= r.nextID {
		r.nextID = id + 1
	}
	return a
}

// Get returns the agent with the given id, or nil.
func (r *Registry) Get(id int64) *Agent {
	return r.agents[id]
}

// Exists reports whether id names a registered agent.
func (r *Registry) Exists(id int64) bool {
	_, ok := r.agents[id]
	return ok
}

// Destroy removes the agent and releases its memory and context. The
// caller is responsible for having drained the agent's inbox first.
func (r *Registry) Destroy(id int64) bool {
	a, ok := r.agents[id]
	if !ok {
		return false
	}
	delete(r.agents, id)

	data.DropOwnership(a.Memory, a)
	data.Destroy(a.Memory)
	data.DropOwnership(a.Context, a)
	data.Destroy(a.Context)
	return true
}

// Count returns the number of registered agents.
func (r *Registry) Count() int {
	return len(r.agents)
}

// IDs returns the registered agent ids in ascending order, giving
// iteration a stable order.
func (r *Registry) IDs() []int64 {
	ids := make([]int64, 0, len(r.agents))
	for id := range r.agents {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// NextID returns the id the allocator would hand out next.
func (r *Registry) NextID() int64 {
	return r.nextID
}

// Clear destroys every agent and resets the allocator.
func (r *Registry) Clear() {
	for _, id := range r.IDs() {
		r.Destroy(id)
	}
	r.nextID = 1
}
