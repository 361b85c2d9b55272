// Package stub serves canned replies shaped like the churn analysis
// service. It exists for demos and end-to-end tests; it does no analysis.
package stub

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/demo.yaml
var fixtureFS embed.FS

// Reply is one canned answer.
type Reply struct {
	Status int           `yaml:"status"`
	Delay  time.Duration `yaml:"delay"`
	Body   string        `yaml:"body"`
	// Raw allows a body that is not JSON, for exercising client failures.
	Raw bool `yaml:"raw"`
}

// Route answers queries containing Match, compared case-insensitively.
type Route struct {
	Match string `yaml:"match"`
	Reply `yaml:",inline"`
}

// Fixture is the whole canned catalogue.
type Fixture struct {
	Routes  []Route `yaml:"routes"`
	Default Reply   `yaml:"default"`
}

// LoadFixture reads a fixture file. An empty path loads the built-in demo.
func LoadFixture(path string) (Fixture, error) {
	var (
		data []byte
		err  error
	)
	if path == "" {
		data, err = fixtureFS.ReadFile("fixtures/demo.yaml")
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return Fixture{}, err
	}
	return ParseFixture(data)
}

// ParseFixture decodes and checks fixture YAML.
func ParseFixture(data []byte) (Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return Fixture{}, fmt.Errorf("stub: parse fixture: %w", err)
	}
	if fx.Default.Status == 0 {
		fx.Default.Status = 200
	}
	if fx.Default.Body == "" {
		fx.Default.Body = `{"intent":"unknown"}`
	}
	for i := range fx.Routes {
		route := &fx.Routes[i]
		if strings.TrimSpace(route.Match) == "" {
			return Fixture{}, fmt.Errorf("stub: route %d has an empty match", i)
		}
		if route.Status == 0 {
			route.Status = 200
		}
		if route.Status < 100 || route.Status > 599 {
			return Fixture{}, fmt.Errorf("stub: route %q has invalid status %d", route.Match, route.Status)
		}
		if !route.Raw && !json.Valid([]byte(route.Body)) {
			return Fixture{}, fmt.Errorf("stub: route %q body is not JSON", route.Match)
		}
	}
	return fx, nil
}

// Lookup returns the reply for a query.
func (f Fixture) Lookup(query string) Reply {
	q := strings.ToLower(query)
	for _, route := range f.Routes {
		if strings.Contains(q, strings.ToLower(route.Match)) {
			return route.Reply
		}
	}
	return f.Default
}
