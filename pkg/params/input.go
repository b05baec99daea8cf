package params

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	perrors "github.com/ducminhle1904/ad-params/internal/errors"
)

// ParseAssignments builds a user input layer from "field=value" strings.
// Unknown fields and repeated assignments are load-time errors.
func ParseAssignments(defaults *DefaultsTable, assignments []string) (Layer, error) {
	component := defaults.Name() + ".input"
	report := perrors.NewReport(component)
	out := make(Layer, len(assignments))
	for i, a := range assignments {
		source := fmt.Sprintf("input #%d", i+1)
		name, raw, ok := strings.Cut(a, "=")
		if !ok {
			report.Add(perrors.NewInvalidValueError(component, strings.TrimSpace(a), a, "must be written as field=value").
				WithContext("source", source))
			continue
		}
		f := Field(strings.TrimSpace(name))
		spec, known := defaults.Spec(f)
		if !known {
			report.Add(perrors.NewUnknownFieldError(component, "input", string(f)).WithContext("source", source))
			continue
		}
		if _, dup := out[f]; dup {
			report.Add(perrors.NewDuplicateOverrideError(component, "input "+string(f), "earlier assignment", source))
			continue
		}
		v, err := ParseValue(spec.Kind, raw)
		if err != nil {
			report.Add(perrors.NewInvalidValueError(component, string(f), raw, err.Error()).WithContext("source", source))
			continue
		}
		out[f] = v
	}
	if err := report.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadLines reads "field=value" lines. Blank lines and lines starting with '#' are skipped.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return lines, nil
}

// ReadAssignments is ParseAssignments over ReadLines
func ReadAssignments(defaults *DefaultsTable, r io.Reader) (Layer, error) {
	lines, err := ReadLines(r)
	if err != nil {
		return nil, err
	}
	return ParseAssignments(defaults, lines)
}
