package persist

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/agerun/agerun/data"
	"github.com/agerun/agerun/runerrors"
)

// AgentRecord is one agents-file entry: the agent's id, its bound
// method reference and its two maps.
type AgentRecord struct {
	ID         int64
	MethodName string
	Version    string
	Memory     *data.Map
	Context    *data.Map
}

// SaveAgents writes records to path atomically. The record format is
//
//	AGENT <id> <method_name> <version>
//	MEMORY <serialized map>
//	CONTEXT <serialized map>
func SaveAgents(path string, records []AgentRecord) error {
	var buf bytes.Buffer
	for _, record := range records {
		fmt.Fprintf(&buf, "AGENT %d %s %s\n", record.ID, record.MethodName, record.Version)
		fmt.Fprintf(&buf, "MEMORY %s\n", serializeMap(record.Memory))
		fmt.Fprintf(&buf, "CONTEXT %s\n", serializeMap(record.Context))
	}
	return writeFileAtomic(path, buf.Bytes())
}

// LoadAgents reads path and returns its records. A missing file yields
// no records. A malformed file restores the backup and reports the
// corruption; the maps of the returned records are unowned.
func LoadAgents(path string) ([]AgentRecord, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, runerrors.New(runerrors.IoFailure, "cannot read %s: %v", path, err)
	}

	records, perr := parseAgents(string(content))
	if perr != nil {
		if rerr := restoreBackup(path); rerr != nil {
			return nil, perr
		}
		return nil, runerrors.New(runerrors.IoFailure,
			"%s was corrupt and has been restored from backup: %s", path, perr.Message)
	}
	return records, nil
}

// parseAgents parses the agents file content.
func parseAgents(content string) ([]AgentRecord, *runerrors.RuntimeError) {
	records := make([]AgentRecord, 0)
	lines := strings.Split(content, "\n")

	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			i++
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 4 || fields[0] != "AGENT" {
			return nil, runerrors.New(runerrors.PersistenceCorruption, "malformed agent header %q", line)
		}
		id, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil || id < 1 {
			return nil, runerrors.New(runerrors.PersistenceCorruption, "invalid agent id %q", fields[1])
		}
		if i+2 >= len(lines) {
			return nil, runerrors.New(runerrors.PersistenceCorruption, "truncated record for agent %d", id)
		}

		memoryLine := lines[i+1]
		if !strings.HasPrefix(memoryLine, "MEMORY ") {
			return nil, runerrors.New(runerrors.PersistenceCorruption, "missing MEMORY line for agent %d", id)
		}
		memory, perr := parseMap(memoryLine[len("MEMORY "):])
		if perr != nil {
			return nil, perr
		}

		contextLine := lines[i+2]
		if !strings.HasPrefix(contextLine, "CONTEXT ") {
			return nil, runerrors.New(runerrors.PersistenceCorruption, "missing CONTEXT line for agent %d", id)
		}
		context, perr := parseMap(contextLine[len("CONTEXT "):])
		if perr != nil {
			return nil, perr
		}

		records = append(records, AgentRecord{
			ID:         id,
			MethodName: fields[2],
			Version:    fields[3],
			Memory:     memory,
			Context:    context,
		})
		i += 3
	}
	return records, nil
}
