package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that reads "10m", "1d" or "1w2d" from YAML.
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	parsed, err := parseDurationExtended(raw)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// parseDurationExtended parses Go duration strings plus d (24h) and w (7d).
//
// Examples: "600s", "10m", "7d", "1w2d", "1.5d", "-2w".
func parseDurationExtended(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("duration is required")
	}
	if !strings.ContainsAny(raw, "dw") {
		return time.ParseDuration(raw)
	}
	expanded, err := expandDaysWeeks(raw)
	if err != nil {
		return 0, err
	}
	return time.ParseDuration(expanded)
}

// expandDaysWeeks rewrites d and w components as hours and leaves the rest for
// time.ParseDuration to validate.
func expandDaysWeeks(raw string) (string, error) {
	invalid := fmt.Errorf("invalid duration %q", raw)
	s := raw

	var b strings.Builder
	if s[0] == '+' || s[0] == '-' {
		b.WriteByte(s[0])
		s = s[1:]
		if s == "" {
			return "", invalid
		}
	}

	for s != "" {
		n := numberPrefix(s)
		if n == 0 {
			return "", invalid
		}
		num, err := strconv.ParseFloat(s[:n], 64)
		if err != nil {
			return "", invalid
		}
		numStr := s[:n]
		s = s[n:]

		u := unitPrefix(s)
		if u <= 0 {
			return "", invalid
		}
		unit := s[:u]
		s = s[u:]

		switch unit {
		case "d":
			b.WriteString(strconv.FormatFloat(num*24, 'f', -1, 64))
			b.WriteByte('h')
		case "w":
			b.WriteString(strconv.FormatFloat(num*7*24, 'f', -1, 64))
			b.WriteByte('h')
		default:
			b.WriteString(numStr)
			b.WriteString(unit)
		}
	}
	return b.String(), nil
}

// numberPrefix returns the length of the leading [0-9]+(\.[0-9]*)? run.
func numberPrefix(s string) int {
	i := 0
	dot := false
	for i < len(s) {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c == '.' && !dot:
			dot = true
		default:
			return i
		}
		i++
	}
	return i
}

// unitPrefix returns the byte length of the leading unit, or -1 on bad UTF-8.
func unitPrefix(s string) int {
	j := 0
	for j < len(s) {
		r, size := utf8.DecodeRuneInString(s[j:])
		if r == utf8.RuneError && size == 1 {
			return -1
		}
		if r != 'µ' && !unicode.IsLetter(r) {
			break
		}
		j += size
	}
	return j
}
