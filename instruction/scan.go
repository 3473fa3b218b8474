package instruction

import "strings"

// Quote-aware scanning helpers shared by the facade and the per-form
// parsers. A double quote toggles string state unless escaped by a
// backslash; := and ( are only significant outside strings.

// scanPositions finds the byte offsets of the first := and the first (
// outside string quotes. A missing occurrence is reported as -1.
func scanPositions(instruction string) (assignPos int, parenPos int) {
	assignPos, parenPos = -1, -1
	inQuotes := false
	for i := 0; i < len(instruction); i++ {
		c := instruction[i]
		if c == '"' && (i == 0 || instruction[i-1] != '\\') {
			inQuotes = !inQuotes
			continue
		}
		if inQuotes {
			continue
		}
		if c == ':' && i+1 < len(instruction) && instruction[i+1] == '=' && assignPos < 0 {
			assignPos = i
		} else if c == '(' && parenPos < 0 {
			parenPos = i
		}
	}
	return assignPos, parenPos
}

// findBareEquals finds a single = outside quotes that is part of neither
// := nor ==, returning its offset or -1. Used to diagnose the common
// mistake of writing = for :=.
func findBareEquals(instruction string) int {
	inQuotes := false
	for i := 0; i < len(instruction); i++ {
		c := instruction[i]
		if c == '"' && (i == 0 || instruction[i-1] != '\\') {
			inQuotes = !inQuotes
			continue
		}
		if inQuotes || c != '=' {
			continue
		}
		prevColon := i > 0 && instruction[i-1] == ':'
		prevEq := i > 0 && instruction[i-1] == '='
		nextEq := i+1 < len(instruction) && instruction[i+1] == '='
		if !prevColon && !prevEq && !nextEq {
			return i
		}
	}
	return -1
}

// argumentSpan locates the argument list of a function call: the offsets
// just inside the outermost parentheses. It fails when the closing
// parenthesis is missing or when anything but whitespace follows it.
func argumentSpan(instruction string, parenPos int) (start int, end int, ok bool) {
	inQuotes := false
	depth := 0
	closePos := -1
	for i := parenPos; i < len(instruction); i++ {
		c := instruction[i]
		if c == '"' && instruction[i-1] != '\\' {
			inQuotes = !inQuotes
			continue
		}
		if inQuotes {
			continue
		}
		if c == '(' {
			depth++
		} else if c == ')' {
			depth--
			if depth == 0 {
				closePos = i
				break
			}
		}
	}
	if closePos < 0 {
		return 0, 0, false
	}
	if strings.TrimSpace(instruction[closePos+1:]) != "" {
		return 0, 0, false
	}
	return parenPos + 1, closePos, true
}

// splitArguments splits an argument list on top-level commas, honoring
// quotes and nested parentheses. It returns each argument's raw text and
// its byte offset within the enclosing instruction (base is the offset
// of the list itself).
func splitArguments(list string, base int) (args []string, offsets []int) {
	args = make([]string, 0)
	offsets = make([]int, 0)
	if strings.TrimSpace(list) == "" {
		return args, offsets
	}

	inQuotes := false
	depth := 0
	start := 0
	for i := 0; i < len(list); i++ {
		c := list[i]
		if c == '"' && (i == 0 || list[i-1] != '\\') {
			inQuotes = !inQuotes
			continue
		}
		if inQuotes {
			continue
		}
		switch c {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, list[start:i])
				offsets = append(offsets, base+start)
				start = i + 1
			}
		}
	}
	args = append(args, list[start:])
	offsets = append(offsets, base+start)
	return args, offsets
}

// trimOffset returns text trimmed of surrounding whitespace together
// with the byte offset adjustment for the leading cut.
func trimOffset(text string, offset int) (string, int) {
	trimmed := strings.TrimLeft(text, " \t\r\n")
	offset += len(text) - len(trimmed)
	return strings.TrimRight(trimmed, " \t\r\n"), offset
}
