package persist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agerun/agerun/data"
)

// TestMethods_RoundTrip verifies the methods file format, including
// multi-line sources.
func TestMethods_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "methodology.agerun")

	records := []MethodRecord{
		{Name: "echo", Version: "1.0.0", Source: "send(0, message)"},
		{Name: "counter", Version: "2.1.0", Source: "memory.count := 0\nmemory.count := memory.count + 1\n"},
		{Name: "echo", Version: "1.1.0", Source: "send(0, message)"},
	}

	assert.Nil(t, SaveMethods(path, records))

	loaded, err := LoadMethods(path)
	assert.Nil(t, err)
	assert.Equal(t, records, loaded, "records survive the round trip in definition order")
}

// TestMethods_MissingFileIsEmpty verifies first-run behavior.
func TestMethods_MissingFileIsEmpty(t *testing.T) {
	loaded, err := LoadMethods(filepath.Join(t.TempDir(), "nope.agerun"))
	assert.Nil(t, err)
	assert.Empty(t, loaded)
}

// TestMethods_CorruptionRestoresBackup verifies that a corrupt file is
// replaced by its backup and the failure surfaces as an I/O error.
func TestMethods_CorruptionRestoresBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "methodology.agerun")

	good := []MethodRecord{{Name: "echo", Version: "1.0.0", Source: "send(0, message)"}}
	assert.Nil(t, SaveMethods(path, good))

	// Simulate a crash that left a corrupt file and an intact backup
	content, _ := os.ReadFile(path)
	assert.Nil(t, os.WriteFile(path+".bak", content, 0600))
	assert.Nil(t, os.WriteFile(path, []byte("METHOD broken\ngarbage"), 0600))

	_, err := LoadMethods(path)
	assert.NotNil(t, err, "the corrupt load must surface a failure")

	// The backup has been restored; the next load succeeds
	loaded, err := LoadMethods(path)
	assert.Nil(t, err)
	assert.Equal(t, good, loaded)
}

// TestMethods_ByteCountMismatch verifies the count check.
func TestMethods_ByteCountMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "methodology.agerun")
	assert.Nil(t, os.WriteFile(path, []byte("METHOD echo 1.0.0\n999\nshort\n"), 0600))

	_, err := LoadMethods(path)
	assert.NotNil(t, err, "a byte count beyond the file must fail")
}

// TestAgents_RoundTrip verifies the agents file format with nested
// maps of every scalar type.
func TestAgents_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agency.agerun")

	memory := data.NewMap()
	data.SetByPath(memory, []string{"count"}, data.NewInteger(3))
	data.SetByPath(memory, []string{"rate"}, data.NewDouble(1.5))
	data.SetByPath(memory, []string{"user", "name"}, data.NewString("Alice"))
	data.SetByPath(memory, []string{"note"}, data.NewString("line1\nline2; with \"quotes\""))

	context := data.NewMap()
	context.Set("origin", data.NewString("test"))

	records := []AgentRecord{
		{ID: 7, MethodName: "counter", Version: "1.0.0", Memory: memory, Context: context},
	}
	assert.Nil(t, SaveAgents(path, records))

	loaded, err := LoadAgents(path)
	assert.Nil(t, err)
	if !assert.Equal(t, 1, len(loaded)) {
		return
	}
	assert.Equal(t, int64(7), loaded[0].ID)
	assert.Equal(t, "counter", loaded[0].MethodName)
	assert.Equal(t, "1.0.0", loaded[0].Version)
	assert.True(t, data.Equal(memory, loaded[0].Memory), "memory survives the round trip")
	assert.True(t, data.Equal(context, loaded[0].Context), "context survives the round trip")
}

// TestAgents_UnknownTagIsCorruption verifies the tag check.
func TestAgents_UnknownTagIsCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agency.agerun")
	content := "AGENT 1 echo 1.0.0\nMEMORY M{\"k\"=X:1}\nCONTEXT M{}\n"
	assert.Nil(t, os.WriteFile(path, []byte(content), 0600))

	_, err := LoadAgents(path)
	assert.NotNil(t, err, "an unknown type tag must fail the load")
}

// TestWriteFileAtomic_ReplacesOnSuccess verifies that a successful write
// replaces the previous content and the temp-rename discipline leaves no
// droppings.
func TestWriteFileAtomic_ReplacesOnSuccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file")

	assert.Nil(t, writeFileAtomic(path, []byte("one")))
	assert.Nil(t, writeFileAtomic(path, []byte("two")))

	content, err := os.ReadFile(path)
	assert.Nil(t, err)
	assert.Equal(t, "two", string(content))

	_, err = os.Stat(path + ".bak")
	assert.True(t, os.IsNotExist(err), "the backup is removed after a successful write")
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "the temp file is renamed away")
}

// TestSerializeMap_Empty verifies the empty-map form.
func TestSerializeMap_Empty(t *testing.T) {
	m, err := parseMap(serializeMap(data.NewMap()))
	assert.Nil(t, err)
	assert.Equal(t, 0, m.Len())
}
