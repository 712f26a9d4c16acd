package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"buildwatch-agent/src/logger"
)

var ErrProviderUnknown = errors.New("unknown CI provider")

// BuildServer defines the interface for CI integrations that annotate
// commits with live build status.
type BuildServer interface {
	// Name returns the provider name (e.g., "appveyor")
	Name() string

	// Watch starts discovering builds for commits accepted by filter and
	// streams status snapshots until every build is terminal or ctx ends.
	Watch(ctx context.Context, filter CommitFilter) *Stream
}

// Settings is the host configuration surface recognized by build servers.
type Settings struct {
	AccountName  string
	AccountToken string
	// ProjectNames is a pipe-delimited list; empty means every project.
	ProjectNames    string
	LoadTestResults bool

	// BaseURL overrides the provider's public endpoint.
	BaseURL      string
	PollInterval time.Duration
}

// ProjectFilter returns the requested project names after host template
// expansion, and whether every project of the account should be used.
func (s Settings) ProjectFilter(expand func(string) string) (names []string, useAll bool) {
	raw := s.ProjectNames
	if expand != nil {
		raw = expand(raw)
	}
	for _, name := range strings.Split(raw, "|") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names, len(names) == 0
}

// Options carries host collaborators handed to a factory.
type Options struct {
	Logger     logger.Logger
	HTTPClient *http.Client
	// Expand applies host-defined variable substitution to the project filter.
	Expand func(string) string
	// Executor runs the poll worker; nil starts a goroutine.
	Executor Executor
}

// Factory builds a BuildServer from host settings.
type Factory func(settings Settings, opts Options) (BuildServer, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// RegisterProvider makes a build server available by name. Registering the
// same name twice panics.
func RegisterProvider(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if factory == nil {
		panic("provider: RegisterProvider factory is nil")
	}
	if _, dup := registry[name]; dup {
		panic("provider: RegisterProvider called twice for " + name)
	}
	registry[name] = factory
}

// NewBuildServer returns the build server registered under name.
func NewBuildServer(name string, settings Settings, opts Options) (BuildServer, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderUnknown, name)
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewSilentLogger()
	}
	return factory(settings, opts)
}

// Providers lists registered provider names in sorted order.
func Providers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
