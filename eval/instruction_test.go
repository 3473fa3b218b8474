package eval

import (
	"testing"

	"github.com/agerun/agerun/data"
	"github.com/agerun/agerun/eventlog"
	"github.com/agerun/agerun/instruction"
	"github.com/agerun/agerun/runerrors"
)

// fakeRuntime records the dispatcher calls the lifecycle instructions
// make, without a real dispatcher behind them.
type fakeRuntime struct {
	sent       []data.Value
	sentTo     []int64
	sendResult bool

	spawned     []string
	spawnResult int64

	exited     []int64
	exitResult bool

	compiled      []string
	compileResult bool

	deprecated      []string
	deprecateResult bool
}

func (f *fakeRuntime) SendMessage(agentID int64, message data.Value) bool {
	f.sentTo = append(f.sentTo, agentID)
	f.sent = append(f.sent, message)
	data.TakeOwnership(message, f)
	return f.sendResult
}

func (f *fakeRuntime) SpawnAgent(methodName string, versionText string, context *data.Map) int64 {
	f.spawned = append(f.spawned, methodName+"/"+versionText)
	return f.spawnResult
}

func (f *fakeRuntime) ExitAgent(agentID int64) bool {
	f.exited = append(f.exited, agentID)
	return f.exitResult
}

func (f *fakeRuntime) CompileMethod(name string, source string, versionText string) bool {
	f.compiled = append(f.compiled, name+"/"+versionText)
	return f.compileResult
}

func (f *fakeRuntime) DeprecateMethod(name string, versionText string) bool {
	f.deprecated = append(f.deprecated, name+"/"+versionText)
	return f.deprecateResult
}

// run parses one instruction and evaluates it against frame.
func run(t *testing.T, rt Runtime, frame *Frame, input string) *runerrors.RuntimeError {
	t.Helper()
	log := eventlog.NewWithWriter(nil)
	parser := instruction.NewParser(log)
	node, perr := parser.Parse(input)
	if perr != nil {
		t.Fatalf("parse of %q failed: %v", input, perr)
	}
	ev := NewInstructionEvaluator(log, rt)
	return ev.Evaluate(frame, node)
}

// memoryInt reads an integer out of the frame's memory.
func memoryInt(t *testing.T, frame *Frame, path ...string) int64 {
	t.Helper()
	value := data.GetByPath(frame.Memory, path)
	if value == nil {
		t.Fatalf("memory path %v is empty", path)
	}
	return value.(*data.Integer).Value
}

// TestAssignment_StoresValues verifies plain stores and intermediate
// map creation.
func TestAssignment_StoresValues(t *testing.T) {
	frame := testFrame(nil, "")

	if err := run(t, nil, frame, "memory.count := 7"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if memoryInt(t, frame, "count") != 7 {
		t.Errorf("count should be 7")
	}

	if err := run(t, nil, frame, `memory.user.name := "Alice"`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	name := data.GetByPath(frame.Memory, []string{"user", "name"})
	if name.(*data.String).Value != "Alice" {
		t.Errorf("nested store should create the intermediate map")
	}
}

// TestAssignment_CopiesBorrowedValues verifies scenario S4: assigning
// a memory access stores a copy and leaves the original in place.
func TestAssignment_CopiesBorrowedValues(t *testing.T) {
	user := data.NewMap()
	user.Set("name", data.NewString("Alice"))
	frame := testFrame(map[string]data.Value{"user": user}, "")

	if err := run(t, nil, frame, "memory.copy := memory.user.name"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	copied := data.GetByPath(frame.Memory, []string{"copy"})
	original := data.GetByPath(frame.Memory, []string{"user", "name"})
	if copied.(*data.String).Value != "Alice" {
		t.Errorf("copy should hold Alice")
	}
	if original == nil || original.(*data.String).Value != "Alice" {
		t.Errorf("original should remain in place")
	}
	if copied == original {
		t.Errorf("copy should be a distinct value")
	}
}

// TestAssignment_ScalarIntermediateFails verifies the type mismatch on
// descending through a scalar.
func TestAssignment_ScalarIntermediateFails(t *testing.T) {
	frame := testFrame(map[string]data.Value{"n": data.NewInteger(3)}, "")

	err := run(t, nil, frame, "memory.n.deep := 1")
	if err == nil || err.Kind != runerrors.TypeMismatch {
		t.Errorf("assignment through a scalar should fail with TypeMismatch, got %v", err)
	}
}

// TestAssignment_SelfIncrement verifies the counter idiom.
func TestAssignment_SelfIncrement(t *testing.T) {
	frame := testFrame(map[string]data.Value{"count": data.NewInteger(2)}, "")

	if err := run(t, nil, frame, "memory.count := memory.count + 1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if memoryInt(t, frame, "count") != 3 {
		t.Errorf("count should be 3")
	}
}

// TestSend_SinkIsNoOp verifies that sending to agent 0 always
// succeeds.
func TestSend_SinkIsNoOp(t *testing.T) {
	rt := &fakeRuntime{}
	frame := testFrame(nil, "")

	if err := run(t, rt, frame, `send(0, "dropped")`); err != nil {
		t.Fatalf("send to sink should succeed, got %v", err)
	}
	if len(rt.sent) != 0 {
		t.Errorf("sink sends should not reach the dispatcher")
	}
}

// TestSend_DeliversAndStoresResult verifies delivery and the 1/0
// result in assignment context.
func TestSend_DeliversAndStoresResult(t *testing.T) {
	rt := &fakeRuntime{sendResult: true}
	frame := testFrame(nil, "")

	if err := run(t, rt, frame, `memory.ok := send(7, "hi")`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if memoryInt(t, frame, "ok") != 1 {
		t.Errorf("successful send should store 1")
	}
	if len(rt.sentTo) != 1 || rt.sentTo[0] != 7 {
		t.Errorf("message should reach agent 7")
	}
	if rt.sent[0].(*data.String).Value != "hi" {
		t.Errorf("message should carry the text")
	}

	// Failed send stores 0 but the instruction still succeeds
	rt = &fakeRuntime{sendResult: false}
	if err := run(t, rt, frame, `memory.ok := send(99, "bye")`); err != nil {
		t.Fatalf("assignment-context send should not fail, got %v", err)
	}
	if memoryInt(t, frame, "ok") != 0 {
		t.Errorf("failed send should store 0")
	}
}

// TestSend_BareFailureFails verifies the bare send error on a missing
// target.
func TestSend_BareFailureFails(t *testing.T) {
	rt := &fakeRuntime{sendResult: false}
	frame := testFrame(nil, "")

	err := run(t, rt, frame, `send(99, "x")`)
	if err == nil || err.Kind != runerrors.UnknownAgent {
		t.Errorf("bare send to a missing agent should fail with UnknownAgent, got %v", err)
	}
}

// TestSend_TargetMustBeInteger verifies the target type check.
func TestSend_TargetMustBeInteger(t *testing.T) {
	rt := &fakeRuntime{}
	frame := testFrame(nil, "")

	err := run(t, rt, frame, `send("seven", "x")`)
	if err == nil || err.Kind != runerrors.TypeMismatch {
		t.Errorf("string target should be a type mismatch, got %v", err)
	}
}

// TestIf_ChoosesBranches verifies the truth rule and branch results.
func TestIf_ChoosesBranches(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`memory.r := if(1, "yes", "no")`, "yes"},
		{`memory.r := if(0, "yes", "no")`, "no"},
		{`memory.r := if("", "yes", "no")`, "no"},
		{`memory.r := if("x", "yes", "no")`, "yes"},
		{`memory.r := if(2 > 1, "yes", "no")`, "yes"},
	}

	for _, tt := range tests {
		frame := testFrame(nil, "")
		if err := run(t, nil, frame, tt.input); err != nil {
			t.Errorf("%q: unexpected error %v", tt.input, err)
			continue
		}
		got := data.GetByPath(frame.Memory, []string{"r"}).(*data.String).Value
		if got != tt.expected {
			t.Errorf("%q: expected %q, got %q", tt.input, tt.expected, got)
		}
	}
}

// TestIf_OnlyChosenBranchRuns verifies the laziness of the non-chosen
// branch: its side effect must not happen.
func TestIf_OnlyChosenBranchRuns(t *testing.T) {
	frame := testFrame(nil, "")

	if err := run(t, nil, frame, `if(0, memory.then := 1, memory.els := 1)`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.GetByPath(frame.Memory, []string{"then"}) != nil {
		t.Errorf("the non-chosen then branch must not run")
	}
	if data.GetByPath(frame.Memory, []string{"els"}) == nil {
		t.Errorf("the chosen else branch must run")
	}
}

// TestIf_NestedSend verifies the S2 shape: a send nested in a branch.
func TestIf_NestedSend(t *testing.T) {
	rt := &fakeRuntime{sendResult: true}
	frame := testFrame(map[string]data.Value{"count": data.NewInteger(3)}, "get")

	err := run(t, rt, frame, `if(message == "get", send(0, build("Count: {count}", memory)), "")`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The send goes to the sink, so nothing reaches the dispatcher;
	// the instruction succeeding is the observable outcome.
	if len(rt.sent) != 0 {
		t.Errorf("sink send should not reach the dispatcher")
	}
}

// TestParse_CapturesTypedValues verifies scenario S5.
func TestParse_CapturesTypedValues(t *testing.T) {
	frame := testFrame(nil, "")

	err := run(t, nil, frame, `memory.r := parse("user={u}, age={a}", "user=alice, age=30")`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	u := data.GetByPath(frame.Memory, []string{"r", "u"})
	if u.(*data.String).Value != "alice" {
		t.Errorf("u should capture alice")
	}
	a := data.GetByPath(frame.Memory, []string{"r", "a"})
	if a.(*data.Integer).Value != 30 {
		t.Errorf("a should capture integer 30, got %v", a)
	}
}

// TestParse_AutoTyping verifies the integer/double/string decision.
func TestParse_AutoTyping(t *testing.T) {
	frame := testFrame(nil, "")

	err := run(t, nil, frame, `memory.r := parse("i={i} d={d} s={s}", "i=-4 d=2.5 s=txt")`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.GetByPath(frame.Memory, []string{"r", "i"}).GetType() != data.IntegerType {
		t.Errorf("i should be an integer")
	}
	if data.GetByPath(frame.Memory, []string{"r", "d"}).GetType() != data.DoubleType {
		t.Errorf("d should be a double")
	}
	if data.GetByPath(frame.Memory, []string{"r", "s"}).GetType() != data.StringType {
		t.Errorf("s should be a string")
	}
}

// TestParse_NonMatchYieldsEmptyMap verifies that a failed match is a
// success with an empty result.
func TestParse_NonMatchYieldsEmptyMap(t *testing.T) {
	frame := testFrame(nil, "")

	err := run(t, nil, frame, `memory.r := parse("user={u}", "nothing like it")`)
	if err != nil {
		t.Fatalf("a non-matching parse should still succeed, got %v", err)
	}
	result := data.GetByPath(frame.Memory, []string{"r"}).(*data.Map)
	if result.Len() != 0 {
		t.Errorf("non-matching parse should yield an empty map")
	}
}

// TestBuild_RendersTemplates verifies substitution, missing keys and
// the container restriction.
func TestBuild_RendersTemplates(t *testing.T) {
	frame := testFrame(map[string]data.Value{
		"count": data.NewInteger(3),
		"rate":  data.NewDouble(1.5),
		"name":  data.NewString("n"),
	}, "")

	if err := run(t, nil, frame, `memory.r := build("Count: {count} rate={rate} by {name}", memory)`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := data.GetByPath(frame.Memory, []string{"r"}).(*data.String).Value
	if got != "Count: 3 rate=1.5 by n" {
		t.Errorf("unexpected build result %q", got)
	}

	// Missing keys stay as literal placeholders
	if err := run(t, nil, frame, `memory.r := build("hello {missing}", memory)`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got = data.GetByPath(frame.Memory, []string{"r"}).(*data.String).Value
	if got != "hello {missing}" {
		t.Errorf("missing key should keep the placeholder, got %q", got)
	}
}

// TestBuild_RejectsContainerValues verifies the scalar-only rule.
func TestBuild_RejectsContainerValues(t *testing.T) {
	inner := data.NewMap()
	frame := testFrame(map[string]data.Value{"inner": inner}, "")

	err := run(t, nil, frame, `memory.r := build("x={inner}", memory)`)
	if err == nil || err.Kind != runerrors.TypeMismatch {
		t.Errorf("container value should be a type mismatch, got %v", err)
	}
}

// TestParseBuild_RoundTrip verifies the parse-build inverse property
// for templates whose separators do not occur in the values.
func TestParseBuild_RoundTrip(t *testing.T) {
	frame := testFrame(map[string]data.Value{
		"u": data.NewString("alice"),
		"h": data.NewString("example.org"),
	}, "")

	if err := run(t, nil, frame, `memory.line := build("{u}@{h}", memory)`); err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if err := run(t, nil, frame, `memory.back := parse("{u}@{h}", memory.line)`); err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	back := data.GetByPath(frame.Memory, []string{"back"}).(*data.Map)
	if back.Get("u").(*data.String).Value != "alice" {
		t.Errorf("u should round-trip")
	}
	if back.Get("h").(*data.String).Value != "example.org" {
		t.Errorf("h should round-trip")
	}
}

// TestCompile_RegistersThroughRuntime verifies argument checking and
// result storing.
func TestCompile_RegistersThroughRuntime(t *testing.T) {
	rt := &fakeRuntime{compileResult: true}
	frame := testFrame(nil, "")

	if err := run(t, rt, frame, `memory.ok := compile("echo", "send(0, message)", "1.0.0")`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if memoryInt(t, frame, "ok") != 1 {
		t.Errorf("successful compile should store 1")
	}
	if len(rt.compiled) != 1 || rt.compiled[0] != "echo/1.0.0" {
		t.Errorf("compile should reach the runtime, got %v", rt.compiled)
	}

	rt = &fakeRuntime{compileResult: false}
	if err := run(t, rt, frame, `memory.ok := compile("bad", "oops", "1.0.0")`); err != nil {
		t.Fatalf("assignment-context compile should not fail, got %v", err)
	}
	if memoryInt(t, frame, "ok") != 0 {
		t.Errorf("failed compile should store 0")
	}
}

// TestSpawn_CreatesAndNoOps verifies spawn results and the empty-name
// no-op.
func TestSpawn_CreatesAndNoOps(t *testing.T) {
	rt := &fakeRuntime{spawnResult: 5}
	frame := testFrame(nil, "")

	if err := run(t, rt, frame, `memory.id := spawn("worker", "1.0.0", 0)`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if memoryInt(t, frame, "id") != 5 {
		t.Errorf("spawn should store the new agent id")
	}

	// Empty name is a no-op returning 0, even bare
	rt = &fakeRuntime{}
	if err := run(t, rt, frame, `spawn("", "1.0.0", 0)`); err != nil {
		t.Fatalf("spawn of an empty name should be a successful no-op, got %v", err)
	}
	if len(rt.spawned) != 0 {
		t.Errorf("no-op spawn should not reach the runtime")
	}
	if err := run(t, rt, frame, `memory.id := spawn(0, 0, 0)`); err != nil {
		t.Fatalf("spawn(0) should be a successful no-op, got %v", err)
	}
	if memoryInt(t, frame, "id") != 0 {
		t.Errorf("no-op spawn should store 0")
	}
}

// TestExit_MarksAgents verifies the exit results.
func TestExit_MarksAgents(t *testing.T) {
	rt := &fakeRuntime{exitResult: true}
	frame := testFrame(nil, "")

	if err := run(t, rt, frame, `memory.ok := exit(3)`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if memoryInt(t, frame, "ok") != 1 {
		t.Errorf("exit of a live agent should store 1")
	}
	if len(rt.exited) != 1 || rt.exited[0] != 3 {
		t.Errorf("exit should reach the runtime")
	}

	rt = &fakeRuntime{exitResult: false}
	err := run(t, rt, frame, `exit(42)`)
	if err == nil || err.Kind != runerrors.UnknownAgent {
		t.Errorf("bare exit of an unknown agent should fail, got %v", err)
	}
}

// TestDeprecate_Unregisters verifies the deprecate results.
func TestDeprecate_Unregisters(t *testing.T) {
	rt := &fakeRuntime{deprecateResult: true}
	frame := testFrame(nil, "")

	if err := run(t, rt, frame, `memory.ok := deprecate("echo", "1.0.0")`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if memoryInt(t, frame, "ok") != 1 {
		t.Errorf("deprecate of a registered method should store 1")
	}
	if len(rt.deprecated) != 1 || rt.deprecated[0] != "echo/1.0.0" {
		t.Errorf("deprecate should reach the runtime")
	}
}
