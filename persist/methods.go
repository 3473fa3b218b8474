package persist

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/agerun/agerun/runerrors"
)

// MethodRecord is one methods-file entry: the method's name, version
// text and source bytes.
type MethodRecord struct {
	Name    string
	Version string
	Source  string
}

// SaveMethods writes records to path in the given order, atomically.
// The record format is
//
//	METHOD <name> <version>
//	<byte-count>
//	<source bytes>
func SaveMethods(path string, records []MethodRecord) error {
	var buf bytes.Buffer
	for _, record := range records {
		fmt.Fprintf(&buf, "METHOD %s %s\n", record.Name, record.Version)
		fmt.Fprintf(&buf, "%d\n", len(record.Source))
		buf.WriteString(record.Source)
		buf.WriteString("\n")
	}
	return writeFileAtomic(path, buf.Bytes())
}

// LoadMethods reads path and returns its records in file order, so the
// caller can replay them and earlier versions exist before later ones.
// A missing file yields no records. A malformed file restores the
// backup and reports the corruption.
func LoadMethods(path string) ([]MethodRecord, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, runerrors.New(runerrors.IoFailure, "cannot read %s: %v", path, err)
	}

	records, perr := parseMethods(string(content))
	if perr != nil {
		if rerr := restoreBackup(path); rerr != nil {
			return nil, perr
		}
		return nil, runerrors.New(runerrors.IoFailure,
			"%s was corrupt and has been restored from backup: %s", path, perr.Message)
	}
	return records, nil
}

// parseMethods parses the methods file content.
func parseMethods(content string) ([]MethodRecord, *runerrors.RuntimeError) {
	records := make([]MethodRecord, 0)
	rest := content
	for len(rest) > 0 {
		if strings.TrimSpace(rest) == "" {
			break
		}

		header, remainder, ok := cutLine(rest)
		if !ok {
			return nil, runerrors.New(runerrors.PersistenceCorruption, "truncated method header")
		}
		fields := strings.Fields(header)
		if len(fields) != 3 || fields[0] != "METHOD" {
			return nil, runerrors.New(runerrors.PersistenceCorruption, "malformed method header %q", header)
		}

		countLine, remainder, ok := cutLine(remainder)
		if !ok {
			return nil, runerrors.New(runerrors.PersistenceCorruption, "missing byte count for method %s", fields[1])
		}
		count, err := strconv.Atoi(strings.TrimSpace(countLine))
		if err != nil || count < 0 {
			return nil, runerrors.New(runerrors.PersistenceCorruption, "invalid byte count %q", countLine)
		}
		if count > len(remainder) {
			return nil, runerrors.New(runerrors.PersistenceCorruption,
				"byte count %d exceeds remaining file size for method %s", count, fields[1])
		}

		source := remainder[:count]
		remainder = remainder[count:]
		// The source bytes are followed by the record's closing newline
		if !strings.HasPrefix(remainder, "\n") {
			return nil, runerrors.New(runerrors.PersistenceCorruption,
				"byte count mismatch for method %s", fields[1])
		}
		rest = remainder[1:]

		records = append(records, MethodRecord{
			Name:    fields[1],
			Version: fields[2],
			Source:  source,
		})
	}
	return records, nil
}

// cutLine splits content at the first newline.
func cutLine(content string) (line string, rest string, ok bool) {
	idx := strings.Index(content, "\n")
	if idx < 0 {
		return "", "", false
	}
	return content[:idx], content[idx+1:], true
}
