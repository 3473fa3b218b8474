package method

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agerun/agerun/eventlog"
)

// compileTest compiles a method or fails the test.
func compileTest(t *testing.T, name string, versionText string, source string) *Method {
	t.Helper()
	version, err := ParseVersion(versionText)
	assert.Nil(t, err)
	meth, cerr := Compile(eventlog.NewWithWriter(nil), name, version, source)
	if cerr != nil {
		t.Fatalf("compile of %s failed: %v", name, cerr)
	}
	return meth
}

// TestParseVersion verifies triple parsing and tolerance for short
// forms.
func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("1.2.3")
	assert.Nil(t, err)
	assert.Equal(t, Version{1, 2, 3}, v)
	assert.Equal(t, "1.2.3", v.String())

	v, err = ParseVersion("2")
	assert.Nil(t, err)
	assert.Equal(t, Version{2, 0, 0}, v)

	_, err = ParseVersion("a.b.c")
	assert.NotNil(t, err)
	_, err = ParseVersion("1.2.3.4")
	assert.NotNil(t, err)
	_, err = ParseVersion("-1.0.0")
	assert.NotNil(t, err)
}

// TestVersionCompare verifies ordering.
func TestVersionCompare(t *testing.T) {
	assert.True(t, Version{1, 0, 0}.Compare(Version{2, 0, 0}) < 0)
	assert.True(t, Version{1, 2, 0}.Compare(Version{1, 1, 9}) > 0)
	assert.True(t, Version{1, 1, 2}.Compare(Version{1, 1, 1}) > 0)
	assert.Equal(t, 0, Version{3, 4, 5}.Compare(Version{3, 4, 5}))
}

// TestCompile verifies line-oriented method parsing.
func TestCompile(t *testing.T) {
	meth := compileTest(t, "counter", "1.0.0", `
# reset on wake
if(message == "__wake__", memory.count := 0, "")
if(message == "inc", memory.count := memory.count + 1, "")
`)
	assert.Equal(t, 2, len(meth.AST), "comments and blank lines are skipped")
	assert.Equal(t, "counter", meth.Name)

	// A bad line aborts the compile
	log := eventlog.NewWithWriter(nil)
	version, _ := ParseVersion("1.0.0")
	_, cerr := Compile(log, "bad", version, "memory.x := 1\nnot an instruction at all")
	assert.NotNil(t, cerr)
}

// TestMethodology_ExactAndLatestLookup verifies the §8 registry
// property: exact lookup finds the entry, latest finds the highest
// semver.
func TestMethodology_ExactAndLatestLookup(t *testing.T) {
	m := NewMethodology(eventlog.NewWithWriter(nil))

	v1 := compileTest(t, "echo", "1.0.0", "send(0, message)")
	v12 := compileTest(t, "echo", "1.2.0", "send(0, message)")
	v2 := compileTest(t, "echo", "0.9.0", "send(0, message)")

	assert.True(t, m.Register(v1))
	assert.True(t, m.Register(v12))
	assert.True(t, m.Register(v2))

	assert.Equal(t, v1, m.Lookup("echo", Version{1, 0, 0}))
	assert.Equal(t, v2, m.Lookup("echo", Version{0, 9, 0}))
	assert.Nil(t, m.Lookup("echo", Version{3, 0, 0}))

	assert.Equal(t, v12, m.Latest("echo"), "latest should be the highest semver regardless of registration order")
	assert.Nil(t, m.Latest("unknown"))
}

// TestMethodology_DuplicateRejected verifies immutability of
// registered versions.
func TestMethodology_DuplicateRejected(t *testing.T) {
	m := NewMethodology(eventlog.NewWithWriter(nil))
	assert.True(t, m.Register(compileTest(t, "echo", "1.0.0", "send(0, message)")))
	assert.False(t, m.Register(compileTest(t, "echo", "1.0.0", "send(0, context.x)")))
	assert.Equal(t, 1, m.Count())
}

// TestMethodology_Resolve verifies the latest-selection rules.
func TestMethodology_Resolve(t *testing.T) {
	m := NewMethodology(eventlog.NewWithWriter(nil))
	m.Register(compileTest(t, "echo", "1.0.0", "send(0, message)"))
	m.Register(compileTest(t, "echo", "2.0.0", "send(0, message)"))

	assert.Equal(t, Version{2, 0, 0}, m.Resolve("echo", "").Version)
	assert.Equal(t, Version{2, 0, 0}, m.Resolve("echo", "0").Version)
	assert.Equal(t, Version{1, 0, 0}, m.Resolve("echo", "1.0.0").Version)
	assert.Nil(t, m.Resolve("echo", "9.9.9"))
	assert.Nil(t, m.Resolve("missing", ""))
}

// TestMethodology_Deprecate verifies unregistration.
func TestMethodology_Deprecate(t *testing.T) {
	m := NewMethodology(eventlog.NewWithWriter(nil))
	m.Register(compileTest(t, "echo", "1.0.0", "send(0, message)"))
	m.Register(compileTest(t, "echo", "2.0.0", "send(0, message)"))

	assert.True(t, m.Deprecate("echo", Version{1, 0, 0}))
	assert.Nil(t, m.Lookup("echo", Version{1, 0, 0}))
	assert.NotNil(t, m.Latest("echo"))
	assert.False(t, m.Deprecate("echo", Version{1, 0, 0}), "already removed")

	assert.True(t, m.Deprecate("echo", Version{2, 0, 0}))
	assert.Nil(t, m.Latest("echo"))
	assert.Empty(t, m.Names())
}

// TestMethodology_NamesKeepDefinitionOrder verifies stable persistence
// ordering.
func TestMethodology_NamesKeepDefinitionOrder(t *testing.T) {
	m := NewMethodology(eventlog.NewWithWriter(nil))
	m.Register(compileTest(t, "zeta", "1.0.0", "send(0, message)"))
	m.Register(compileTest(t, "alpha", "1.0.0", "send(0, message)"))
	m.Register(compileTest(t, "zeta", "2.0.0", "send(0, message)"))

	assert.Equal(t, []string{"zeta", "alpha"}, m.Names())
}
