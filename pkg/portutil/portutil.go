// Package portutil parses and validates TCP port numbers, lists, and ranges.
package portutil

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// Validate reports whether port is a usable TCP port number.
func Validate(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port %d out of range 1-65535", port)
	}
	return nil
}

// ParseRange parses "lo-hi" or a single "port" into an inclusive range.
// An inverted range (hi < lo) is returned as-is; callers treat it as
// "nothing to scan", not as an error.
func ParseRange(s string) (lo, hi int, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, fmt.Errorf("empty port range")
	}

	parts := strings.SplitN(s, "-", 2)
	lo, err = toPort(parts[0])
	if err != nil {
		return 0, 0, err
	}
	if len(parts) == 1 {
		return lo, lo, nil
	}
	hi, err = toPort(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return lo, hi, nil
}

// ParseList expands a comma-separated list of ports and ranges
// (e.g. "80,443,5000-5003") into a sorted, de-duplicated slice.
func ParseList(s string) ([]int, error) {
	seen := map[int]struct{}{}
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		lo, hi, err := ParseRange(field)
		if err != nil {
			return nil, err
		}
		if hi < lo {
			return nil, fmt.Errorf("inverted range %q in port list", field)
		}
		for p := lo; p <= hi; p++ {
			seen[p] = struct{}{}
		}
	}

	ports := make([]int, 0, len(seen))
	for p := range seen {
		ports = append(ports, p)
	}
	sort.Ints(ports)
	return ports, nil
}

func toPort(s string) (int, error) {
	p, err := cast.ToIntE(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", s, err)
	}
	if err := Validate(p); err != nil {
		return 0, err
	}
	return p, nil
}
