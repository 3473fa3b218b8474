package eval

import (
	"strconv"
	"strings"

	"github.com/agerun/agerun/data"
)

// Template handling shared by the parse and build instructions. A
// template is literal text interleaved with {name} placeholders.

// templateSegment is one piece of a split template: either literal text
// or a placeholder name.
type templateSegment struct {
	text        string
	placeholder bool
}

// splitTemplate cuts a template into literal and placeholder segments.
// An unclosed brace is treated as literal text.
func splitTemplate(template string) []templateSegment {
	segments := make([]templateSegment, 0)
	rest := template
	for rest != "" {
		open := strings.Index(rest, "{")
		if open < 0 {
			segments = append(segments, templateSegment{text: rest})
			break
		}
		close := strings.Index(rest[open:], "}")
		if close < 0 {
			segments = append(segments, templateSegment{text: rest})
			break
		}
		if open > 0 {
			segments = append(segments, templateSegment{text: rest[:open]})
		}
		segments = append(segments, templateSegment{text: rest[open+1 : open+close], placeholder: true})
		rest = rest[open+close+1:]
	}
	return segments
}

// matchTemplate matches input against template left to right. Each
// placeholder captures the substring up to the next literal segment
// (or the rest of the input for a trailing placeholder). Captures are
// auto-typed: pure decimal integers become Integer, decimals with a dot
// become Double, everything else String. A template that does not match
// yields an empty map, which is still a successful parse.
func matchTemplate(template string, input string) *data.Map {
	result := data.NewMap()
	segments := splitTemplate(template)
	rest := input

	for i := 0; i < len(segments); i++ {
		segment := segments[i]
		if !segment.placeholder {
			if !strings.HasPrefix(rest, segment.text) {
				return data.NewMap()
			}
			rest = rest[len(segment.text):]
			continue
		}

		// Find where the capture ends: at the next literal segment, or
		// at the end of the input when the placeholder is trailing.
		capture := rest
		if i+1 < len(segments) && !segments[i+1].placeholder {
			stop := strings.Index(rest, segments[i+1].text)
			if stop < 0 {
				return data.NewMap()
			}
			capture = rest[:stop]
		} else if i+1 < len(segments) {
			// Adjacent placeholders: the first captures nothing
			capture = ""
		}
		rest = rest[len(capture):]
		result.Set(segment.text, typedCapture(capture))
	}

	if rest != "" {
		return data.NewMap()
	}
	return result
}

// typedCapture converts a captured substring into its natural type.
func typedCapture(capture string) data.Value {
	if isDecimalInteger(capture) {
		// Integers out of int64 range fall back to strings
		if v, ok := parseInt64(capture); ok {
			return data.NewInteger(v)
		}
	}
	if isDecimalDouble(capture) {
		if v, ok := parseFloat64(capture); ok {
			return data.NewDouble(v)
		}
	}
	return data.NewString(capture)
}

// buildTemplate replaces each {name} in the template with the string
// form of values[name]. Missing keys leave the placeholder text
// untouched; a container value reports failure.
func buildTemplate(template string, values *data.Map) (string, bool) {
	var out strings.Builder
	for _, segment := range splitTemplate(template) {
		if !segment.placeholder {
			out.WriteString(segment.text)
			continue
		}
		value := values.Get(segment.text)
		if value == nil {
			out.WriteString("{" + segment.text + "}")
			continue
		}
		switch value.GetType() {
		case data.MapType, data.ListType:
			return "", false
		}
		out.WriteString(value.ToString())
	}
	return out.String(), true
}

// parseInt64 parses a decimal int64, reporting success.
func parseInt64(s string) (int64, bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	return v, err == nil
}

// parseFloat64 parses a decimal float64, reporting success.
func parseFloat64(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

// isDecimalInteger reports whether s is -?[0-9]+.
func isDecimalInteger(s string) bool {
	if s == "" {
		return false
	}
	i := 0
	if s[0] == '-' {
		if len(s) == 1 {
			return false
		}
		i = 1
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// isDecimalDouble reports whether s is -?[0-9]+.[0-9]+.
func isDecimalDouble(s string) bool {
	dot := strings.Index(s, ".")
	if dot < 0 {
		return false
	}
	return isDecimalInteger(s[:dot]) && isDecimalInteger(s[dot+1:]) && !strings.HasPrefix(s[dot+1:], "-")
}
