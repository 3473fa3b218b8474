package persist

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agerun/agerun/data"
	"github.com/agerun/agerun/runerrors"
)

// Map serialization for the agents file. The format is a recursive
// key-value listing with one-letter type tags:
//
//	M{"key"=I:42;"other"=S:"text";"nested"=M{...}}
//
// I tags integers, D doubles, S strings, M nested maps. Keys and string
// values are Go-quoted, which keeps arbitrary text on a single line.

// serializeMap renders a map in the on-disk format.
func serializeMap(m *data.Map) string {
	var out strings.Builder
	writeMap(&out, m)
	return out.String()
}

func writeMap(out *strings.Builder, m *data.Map) {
	out.WriteString("M{")
	for i, key := range m.Keys {
		if i > 0 {
			out.WriteString(";")
		}
		out.WriteString(strconv.Quote(key))
		out.WriteString("=")
		writeValue(out, m.Pairs[key])
	}
	out.WriteString("}")
}

func writeValue(out *strings.Builder, value data.Value) {
	switch v := value.(type) {
	case *data.Integer:
		fmt.Fprintf(out, "I:%d", v.Value)
	case *data.Double:
		fmt.Fprintf(out, "D:%s", v.ToString())
	case *data.String:
		fmt.Fprintf(out, "S:%s", strconv.Quote(v.Value))
	case *data.Map:
		writeMap(out, v)
	default:
		// Lists do not appear in persisted agent state
		out.WriteString("S:\"\"")
	}
}

// mapReader is a cursor over a serialized map.
type mapReader struct {
	text string
	pos  int
}

// parseMap parses the on-disk format back into an unowned map. An
// unknown type tag or a structural mismatch is a corruption error.
func parseMap(text string) (*data.Map, *runerrors.RuntimeError) {
	r := &mapReader{text: strings.TrimSpace(text)}
	m, err := r.readMap()
	if err != nil {
		return nil, err
	}
	if r.pos != len(r.text) {
		return nil, runerrors.New(runerrors.PersistenceCorruption,
			"trailing bytes after serialized map")
	}
	return m, nil
}

func (r *mapReader) readMap() (*data.Map, *runerrors.RuntimeError) {
	if !r.consume("M{") {
		return nil, r.corrupt("expected map tag")
	}
	m := data.NewMap()
	if r.consume("}") {
		return m, nil
	}
	for {
		key, err := r.readQuoted()
		if err != nil {
			return nil, err
		}
		if !r.consume("=") {
			return nil, r.corrupt("expected '=' after key %q", key)
		}
		value, err := r.readValue()
		if err != nil {
			return nil, err
		}
		m.Set(key, value)

		if r.consume(";") {
			continue
		}
		if r.consume("}") {
			return m, nil
		}
		return nil, r.corrupt("expected ';' or '}' after value for key %q", key)
	}
}

func (r *mapReader) readValue() (data.Value, *runerrors.RuntimeError) {
	switch {
	case r.consume("I:"):
		text := r.readUntil(";}")
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, r.corrupt("invalid integer %q", text)
		}
		return data.NewInteger(v), nil
	case r.consume("D:"):
		text := r.readUntil(";}")
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, r.corrupt("invalid double %q", text)
		}
		return data.NewDouble(v), nil
	case r.consume("S:"):
		text, err := r.readQuoted()
		if err != nil {
			return nil, err
		}
		return data.NewString(text), nil
	case strings.HasPrefix(r.rest(), "M{"):
		return r.readMap()
	}
	return nil, r.corrupt("unknown type tag at %q", truncate(r.rest(), 12))
}

// readQuoted reads a Go-quoted string starting at the cursor.
func (r *mapReader) readQuoted() (string, *runerrors.RuntimeError) {
	rest := r.rest()
	if !strings.HasPrefix(rest, "\"") {
		return "", r.corrupt("expected quoted string at %q", truncate(rest, 12))
	}
	// Find the closing quote, honoring backslash escapes
	end := -1
	for i := 1; i < len(rest); i++ {
		if rest[i] == '\\' {
			i++
			continue
		}
		if rest[i] == '"' {
			end = i
			break
		}
	}
	if end < 0 {
		return "", r.corrupt("unterminated quoted string")
	}
	decoded, err := strconv.Unquote(rest[:end+1])
	if err != nil {
		return "", r.corrupt("invalid quoted string %q", rest[:end+1])
	}
	r.pos += end + 1
	return decoded, nil
}

// readUntil reads up to (not including) the first byte in stops.
func (r *mapReader) readUntil(stops string) string {
	rest := r.rest()
	end := len(rest)
	for i := 0; i < len(rest); i++ {
		if strings.IndexByte(stops, rest[i]) >= 0 {
			end = i
			break
		}
	}
	r.pos += end
	return rest[:end]
}

func (r *mapReader) rest() string {
	return r.text[r.pos:]
}

func (r *mapReader) consume(prefix string) bool {
	if strings.HasPrefix(r.rest(), prefix) {
		r.pos += len(prefix)
		return true
	}
	return false
}

func (r *mapReader) corrupt(format string, args ...interface{}) *runerrors.RuntimeError {
	return runerrors.New(runerrors.PersistenceCorruption, format, args...)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
