// Package uri composes absolute request URIs against a remote base address.
package uri

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{[A-Za-z_][A-Za-z0-9_]*\}`)

// CallerInputError reports inbound input that cannot be turned into a request.
type CallerInputError struct {
	Param string
	Err   error
}

func (e *CallerInputError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("invalid input: %v", e.Err)
	}
	return fmt.Sprintf("invalid input %q: %v", e.Param, e.Err)
}

func (e *CallerInputError) Unwrap() error { return e.Err }

// ErrEmptyValue is wrapped by CallerInputError for blank placeholder or parameter values.
var ErrEmptyValue = errors.New("value must not be empty")

// Build joins base and pathTemplate, fills {name} placeholders positionally from vars and
// appends the encoded query. The number of vars must match the number of placeholders.
func Build(base, pathTemplate string, query url.Values, vars ...string) (string, error) {
	u, err := parseBase(base)
	if err != nil {
		return "", err
	}

	names := Placeholders(pathTemplate)
	if len(names) != len(vars) {
		return "", &CallerInputError{
			Param: strings.Join(names, ","),
			Err:   fmt.Errorf("path %q expects %d value(s), got %d", pathTemplate, len(names), len(vars)),
		}
	}

	path := pathTemplate
	for i, name := range names {
		if strings.TrimSpace(vars[i]) == "" {
			return "", &CallerInputError{Param: strings.Trim(name, "{}"), Err: ErrEmptyValue}
		}
		path = strings.Replace(path, name, url.PathEscape(vars[i]), 1)
	}
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	out := strings.TrimRight(u.String(), "/") + path
	if encoded := EncodeQuery(query); encoded != "" {
		out += "?" + encoded
	}
	return out, nil
}

// Placeholders returns the {name} segments of pathTemplate in order.
func Placeholders(pathTemplate string) []string {
	return placeholderPattern.FindAllString(pathTemplate, -1)
}

// EncodeQuery percent-encodes values with %20 for spaces, keys sorted.
func EncodeQuery(query url.Values) string {
	if len(query) == 0 {
		return ""
	}
	return strings.ReplaceAll(query.Encode(), "+", "%20")
}

func parseBase(base string) (*url.URL, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return nil, errors.New("base address is empty")
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base address: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base address %q must be absolute", base)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return nil, fmt.Errorf("base address %q must not carry a query or fragment", base)
	}
	return u, nil
}
