// Package runtime implements the dispatcher: the top-level orchestrator
// that owns the methodology, the agent registry and the global message
// queue, and drives agents by delivering messages through the
// interpreter. Execution is single-threaded and cooperative; Step is
// the only suspension point, and the dispatcher never yields
// mid-instruction.
package runtime

import (
	"path/filepath"

	"github.com/agerun/agerun/agent"
	"github.com/agerun/agerun/data"
	"github.com/agerun/agerun/eval"
	"github.com/agerun/agerun/eventlog"
	"github.com/agerun/agerun/method"
	"github.com/agerun/agerun/persist"
)

// Reserved messages delivered by the dispatcher itself: wake on agent
// birth, sleep before agent destruction.
const (
	WakeMessage  = "__wake__"
	SleepMessage = "__sleep__"
)

// Default persistence file names inside the working directory.
const (
	MethodsFileName = "methodology.agerun"
	AgentsFileName  = "agency.agerun"
)

// queuedMessage is one entry of the global FIFO: the target agent id
// and the message value, owned by the dispatcher while in flight.
type queuedMessage struct {
	target  int64
	message data.Value
}

// Dispatcher owns the registries and the message queue and exposes the
// runtime's public operations. It implements eval.Runtime, which is how
// the lifecycle instructions (send, spawn, exit, compile, deprecate)
// reach back into it.
type Dispatcher struct {
	log         *eventlog.Log
	methodology *method.Methodology
	agents      *agent.Registry
	queue       []queuedMessage
	interpreter *eval.Interpreter
	dir         string
}

// NewDispatcher creates a runtime rooted at the working directory dir
// (persistence files live there; "" means the current directory).
func NewDispatcher(log *eventlog.Log, dir string) *Dispatcher {
	d := &Dispatcher{
		log:         log,
		methodology: method.NewMethodology(log),
		agents:      agent.NewRegistry(),
		queue:       make([]queuedMessage, 0),
		dir:         dir,
	}
	d.interpreter = eval.NewInterpreter(log, d)
	return d
}

// Methodology exposes the method registry to embedders.
func (d *Dispatcher) Methodology() *method.Methodology {
	return d.methodology
}

// Agents exposes the agent registry to embedders.
func (d *Dispatcher) Agents() *agent.Registry {
	return d.agents
}

// RegisterMethod compiles source and registers it under (name,
// versionText). persistent marks agents of this method for the agents
// file. Reports whether the method was registered.
func (d *Dispatcher) RegisterMethod(name string, source string, versionText string, persistent bool) bool {
	version, err := method.ParseVersion(versionText)
	if err != nil {
		d.log.Errorf("invalid version %q for method %s", versionText, name)
		return false
	}
	meth, cerr := method.Compile(d.log, name, version, source)
	if cerr != nil {
		d.log.ErrorAt(cerr.Message, cerr.Position)
		return false
	}
	meth.Persistent = persistent
	return d.methodology.Register(meth)
}

// Init spawns one agent of the named method (latest version when
// versionText is "" or "0") and enqueues its wake message. Returns the
// agent id, or 0 when the method does not resolve.
func (d *Dispatcher) Init(methodName string, versionText string) int64 {
	if methodName == "" {
		return 0
	}
	return d.SpawnAgent(methodName, versionText, nil)
}

// Send enqueues value for agentID, taking ownership of the unowned
// value. Sending to the sink id 0 succeeds without enqueueing. Reports
// false when the target is neither the sink nor a live agent; that is
// an expected outcome and is not logged at ERROR severity.
func (d *Dispatcher) Send(agentID int64, value data.Value) bool {
	return d.SendMessage(agentID, value)
}

// SendString enqueues a fresh string message, the common embedder case.
func (d *Dispatcher) SendString(agentID int64, text string) bool {
	return d.SendMessage(agentID, data.NewString(text))
}

// SendMessage implements eval.Runtime.
func (d *Dispatcher) SendMessage(agentID int64, message data.Value) bool {
	if message == nil {
		return false
	}
	if agentID == agent.SinkID {
		data.DestroyIfOwned(message, d)
		return true
	}
	if !d.agents.Exists(agentID) {
		data.DestroyIfOwned(message, d)
		return false
	}
	if !data.TakeOwnership(message, d) {
		d.log.Error("cannot enqueue a message that is still owned elsewhere")
		return false
	}
	d.queue = append(d.queue, queuedMessage{target: agentID, message: message})
	return true
}

// SpawnAgent implements eval.Runtime: it creates an agent bound to the
// resolved method, seeds its context from a shallow copy of context,
// and enqueues the wake message.
func (d *Dispatcher) SpawnAgent(methodName string, versionText string, context *data.Map) int64 {
	meth := d.methodology.Resolve(methodName, versionText)
	if meth == nil {
		d.log.Errorf("spawn: method %s version %q not found", methodName, versionText)
		return 0
	}
	a := d.agents.Create(meth, context)
	if a == nil {
		d.log.Errorf("spawn: could not create agent for method %s", methodName)
		return 0
	}
	d.SendMessage(a.ID, data.NewString(WakeMessage))
	return a.ID
}

// ExitAgent implements eval.Runtime: it marks the agent inactive and
// draining and enqueues the sleep message, so the agent observes its
// own shutdown before destruction. Destruction happens in Step once no
// queued message targets the agent anymore.
func (d *Dispatcher) ExitAgent(agentID int64) bool {
	a := d.agents.Get(agentID)
	if a == nil {
		return false
	}
	if a.Draining {
		// Already shutting down; nothing more to schedule
		return true
	}
	a.Active = false
	a.Draining = true
	d.SendMessage(agentID, data.NewString(SleepMessage))
	return true
}

// CompileMethod implements eval.Runtime. Methods registered from script
// code are not persistent.
func (d *Dispatcher) CompileMethod(name string, source string, versionText string) bool {
	return d.RegisterMethod(name, source, versionText, false)
}

// DeprecateMethod implements eval.Runtime.
func (d *Dispatcher) DeprecateMethod(name string, versionText string) bool {
	version, err := method.ParseVersion(versionText)
	if err != nil {
		return false
	}
	return d.methodology.Deprecate(name, version)
}

// Step dequeues at most one message and delivers it. Active agents run
// the interpreter; draining agents still receive their remaining
// messages (the sleep message included) and are destroyed once the
// queue holds nothing more for them. Reports whether a message was
// processed.
func (d *Dispatcher) Step() bool {
	if len(d.queue) == 0 {
		return false
	}
	entry := d.queue[0]
	d.queue = d.queue[1:]

	a := d.agents.Get(entry.target)
	if a == nil {
		// Target died before delivery; drop the message
		data.DropOwnership(entry.message, d)
		data.Destroy(entry.message)
		return true
	}

	if a.Active || a.Draining {
		// A failing method was already reported by the evaluator; the
		// agent stays alive and the next message will be attempted.
		d.interpreter.Execute(a, entry.message)
	}

	data.DropOwnership(entry.message, d)
	data.Destroy(entry.message)

	if a.Draining && !d.hasQueuedMessages(a.ID) {
		d.agents.Destroy(a.ID)
	}
	return true
}

// RunUntilQuiet repeats Step until the queue is empty and returns the
// number of messages processed. Processing may enqueue further
// messages; they are handled in FIFO order, so this runs to a fixpoint.
func (d *Dispatcher) RunUntilQuiet() int {
	count := 0
	for d.Step() {
		count++
	}
	return count
}

// CountAgents returns the number of live agents.
func (d *Dispatcher) CountAgents() int {
	return d.agents.Count()
}

// AgentExists reports whether id names a live agent.
func (d *Dispatcher) AgentExists(id int64) bool {
	return d.agents.Exists(id)
}

// QueueLength returns the number of undelivered messages.
func (d *Dispatcher) QueueLength() int {
	return len(d.queue)
}

// hasQueuedMessages reports whether any queued message targets id.
func (d *Dispatcher) hasQueuedMessages(id int64) bool {
	for _, entry := range d.queue {
		if entry.target == id {
			return true
		}
	}
	return false
}

// Shutdown drains the queue by discarding the remaining messages,
// destroys all agents without further ticks, and clears the
// registries. Saving beforehand is the caller's responsibility.
func (d *Dispatcher) Shutdown() {
	for _, entry := range d.queue {
		data.DropOwnership(entry.message, d)
		data.Destroy(entry.message)
	}
	d.queue = d.queue[:0]
	d.agents.Clear()
	d.methodology.Clear()
}

// methodsPath returns the methods file path inside the working
// directory.
func (d *Dispatcher) methodsPath() string {
	return filepath.Join(d.dir, MethodsFileName)
}

// agentsPath returns the agents file path inside the working directory.
func (d *Dispatcher) agentsPath() string {
	return filepath.Join(d.dir, AgentsFileName)
}

// SaveMethods writes every registered method to the methods file in
// definition order.
func (d *Dispatcher) SaveMethods() error {
	records := make([]persist.MethodRecord, 0, d.methodology.Count())
	for _, name := range d.methodology.Names() {
		for _, meth := range d.methodology.VersionsOf(name) {
			records = append(records, persist.MethodRecord{
				Name:    meth.Name,
				Version: meth.Version.String(),
				Source:  meth.Source,
			})
		}
	}
	return persist.SaveMethods(d.methodsPath(), records)
}

// LoadMethods reads the methods file and registers its records in
// order, so earlier versions exist before later ones that reference
// them. Loaded methods are persistent: they came from disk and belong
// there on the next save.
func (d *Dispatcher) LoadMethods() error {
	records, err := persist.LoadMethods(d.methodsPath())
	if err != nil {
		return err
	}
	for _, record := range records {
		if !d.RegisterMethod(record.Name, record.Source, record.Version, true) {
			d.log.Errorf("load: could not register method %s version %s", record.Name, record.Version)
		}
	}
	return nil
}

// SaveAgents writes every persistent agent to the agents file,
// including its memory and context maps.
func (d *Dispatcher) SaveAgents() error {
	records := make([]persist.AgentRecord, 0)
	for _, id := range d.agents.IDs() {
		a := d.agents.Get(id)
		if !a.Persistent {
			continue
		}
		records = append(records, persist.AgentRecord{
			ID:         a.ID,
			MethodName: a.MethodName(),
			Version:    a.MethodVersion().String(),
			Memory:     a.Memory,
			Context:    a.Context,
		})
	}
	return persist.SaveAgents(d.agentsPath(), records)
}

// LoadAgents reads the agents file and recreates its agents. Every
// loaded agent's method must resolve in the methodology, so LoadMethods
// runs first. The id allocator advances past the highest id observed.
// Loaded agents do not receive a wake message; they were already awake
// when saved.
func (d *Dispatcher) LoadAgents() error {
	records, err := persist.LoadAgents(d.agentsPath())
	if err != nil {
		return err
	}
	for _, record := range records {
		meth := d.methodology.Resolve(record.MethodName, record.Version)
		if meth == nil {
			d.log.Errorf("load: agent %d references unknown method %s version %s",
				record.ID, record.MethodName, record.Version)
			continue
		}
		a := d.agents.CreateWithID(record.ID, meth, record.Memory, record.Context)
		if a == nil {
			d.log.Errorf("load: could not recreate agent %d", record.ID)
			continue
		}
		// Agents in the file are persistent by definition
		a.Persistent = true
	}
	return nil
}
