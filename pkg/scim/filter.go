package scim

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnsupportedFilter reports a filter expression outside the supported
// grammar. Callers map it to an invalidFilter error response.
var ErrUnsupportedFilter = errors.New("unsupported filter expression")

// The surface supports exactly one filter form: userName eq "value".
var filterPattern = regexp.MustCompile(`^(\w+)\s+eq\s+"([^"]*)"$`)

// Filter is a parsed equality filter on a single attribute
type Filter struct {
	Attribute string
	Value     string
}

// ParseFilter parses a SCIM filter expression. An empty expression returns
// a nil filter. Any expression other than an equality match on userName
// returns ErrUnsupportedFilter.
func ParseFilter(expr string) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	m := filterPattern.FindStringSubmatch(expr)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFilter, expr)
	}
	if !strings.EqualFold(m[1], "userName") {
		return nil, fmt.Errorf("%w: attribute %q", ErrUnsupportedFilter, m[1])
	}

	return &Filter{Attribute: "userName", Value: m[2]}, nil
}

// Matches reports whether the given userName satisfies the filter. A nil
// filter matches everything.
func (f *Filter) Matches(userName string) bool {
	if f == nil {
		return true
	}
	return strings.EqualFold(f.Value, userName)
}
