// Package endpoints holds the catalog of remote item-server routes the relay calls.
package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/samvad-hq/item-relay/pkg/uri"
)

// Known endpoint ids.
const (
	GetCallObject = "get-call-obj"
	GetCallList   = "get-call-list"
	PostCall      = "post-call"
	ExchangeCall  = "exchange-call"
)

// placeholderArity is the number of path values the relay fills for each id.
var placeholderArity = map[string]int{
	GetCallObject: 0,
	GetCallList:   0,
	PostCall:      1,
	ExchangeCall:  0,
}

// Endpoint describes one remote route.
type Endpoint struct {
	ID     string `json:"id" yaml:"id"`
	Method string `json:"method" yaml:"method"`
	Path   string `json:"path" yaml:"path"`
}

type catalogFile struct {
	Endpoints []Endpoint `json:"endpoints" yaml:"endpoints"`
}

// Catalog resolves endpoints by id. It is immutable after construction.
type Catalog struct {
	idx map[string]Endpoint
}

// Defaults returns the built-in routes of the remote item server.
func Defaults() []Endpoint {
	return []Endpoint{
		{ID: GetCallObject, Method: http.MethodGet, Path: "/api/server/get-call-obj"},
		{ID: GetCallList, Method: http.MethodGet, Path: "/api/server/get-call-list"},
		{ID: PostCall, Method: http.MethodPost, Path: "/api/server/post-call/{query}"},
		{ID: ExchangeCall, Method: http.MethodPost, Path: "/api/server/exchange-call"},
	}
}

// DefaultCatalog returns a catalog containing only the built-in routes.
func DefaultCatalog() *Catalog {
	c, _ := newCatalog(nil)
	return c
}

// LoadCatalog loads overrides from a YAML/JSON file. An empty path yields the defaults.
func LoadCatalog(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultCatalog(), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open endpoints file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read endpoints file: %w", err)
	}

	parsed, err := parseCatalog(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return newCatalog(parsed.Endpoints)
}

func newCatalog(overrides []Endpoint) (*Catalog, error) {
	idx := make(map[string]Endpoint, 4)
	for _, e := range Defaults() {
		idx[e.ID] = e
	}

	seen := make(map[string]struct{}, len(overrides))
	for i, e := range overrides {
		e = sanitizeEndpoint(e)
		if err := validateEndpoint(e); err != nil {
			return nil, fmt.Errorf("endpoints[%d]: %w", i, err)
		}
		want, ok := placeholderArity[e.ID]
		if !ok {
			return nil, fmt.Errorf("endpoints[%d]: unknown endpoint id %q", i, e.ID)
		}
		if got := len(uri.Placeholders(e.Path)); got != want {
			return nil, fmt.Errorf("endpoints[%d]: path %q for endpoint %q has %d placeholder(s), want %d", i, e.Path, e.ID, got, want)
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("duplicate endpoint id %q", e.ID)
		}
		seen[e.ID] = struct{}{}
		idx[e.ID] = e
	}
	return &Catalog{idx: idx}, nil
}

// Lookup returns the endpoint registered under id.
func (c *Catalog) Lookup(id string) (Endpoint, error) {
	if c == nil {
		return Endpoint{}, errors.New("endpoint catalog is nil")
	}
	e, ok := c.idx[strings.TrimSpace(id)]
	if !ok {
		return Endpoint{}, fmt.Errorf("no endpoint registered for id %q", id)
	}
	return e, nil
}

// All returns every endpoint sorted by id.
func (c *Catalog) All() []Endpoint {
	if c == nil {
		return nil
	}
	out := make([]Endpoint, 0, len(c.idx))
	for _, e := range c.idx {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func parseCatalog(data []byte, ext string) (catalogFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var out catalogFile
		if err := d.fn(data, &out); err == nil {
			return out, nil
		}
	}
	return catalogFile{}, errors.New("endpoints file format not recognized (expected YAML or JSON)")
}

func sanitizeEndpoint(e Endpoint) Endpoint {
	e.ID = strings.TrimSpace(e.ID)
	e.Method = strings.ToUpper(strings.TrimSpace(e.Method))
	e.Path = strings.TrimSpace(e.Path)
	return e
}

var knownMethods = map[string]struct{}{
	http.MethodGet:    {},
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodPatch:  {},
	http.MethodDelete: {},
}

func validateEndpoint(e Endpoint) error {
	if e.ID == "" {
		return errors.New("id is required")
	}
	if _, ok := knownMethods[e.Method]; !ok {
		return fmt.Errorf("unsupported method %q for endpoint %q", e.Method, e.ID)
	}
	if !strings.HasPrefix(e.Path, "/") {
		return fmt.Errorf("path for endpoint %q must start with '/'", e.ID)
	}
	return nil
}
