package appveyor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"buildwatch-agent/src/logger"
	"buildwatch-agent/src/provider"
)

// projectLister fetches the project list of an account.
type projectLister interface {
	ListProjects(ctx context.Context) ([]projectEntry, error)
}

// CatalogRequest describes the projects an adapter wants to poll.
type CatalogRequest struct {
	BaseURL     string
	AccountName string
	HasToken    bool
	Names       []string
	UseAll      bool
}

// Catalog caches resolved projects by name. One catalog is shared by every
// adapter the factory creates, so all access goes through mu. The lock is
// held across the remote listing to keep concurrent adapters from fetching
// the same list twice.
type Catalog struct {
	mu       sync.Mutex
	scope    string                      // base URL and account the cache belongs to
	projects map[string]provider.Project // from the account listing
	named    map[string]provider.Project // laid out from names, no listing
	complete bool                        // projects holds the full account listing
	log      logger.Logger
}

// NewCatalog creates an empty catalog.
func NewCatalog(log logger.Logger) *Catalog {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &Catalog{
		projects: make(map[string]provider.Project),
		named:    make(map[string]provider.Project),
		log:      log,
	}
}

// Resolve returns the projects matching req. Explicit names without a token
// are laid out directly; otherwise the cached listing is reused when it
// already covers the request and refetched when it does not. An empty or
// unparsable listing resolves to no projects.
func (c *Catalog) Resolve(ctx context.Context, lister projectLister, req CatalogRequest) ([]provider.Project, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	scope := req.BaseURL + "|" + req.AccountName
	if scope != c.scope {
		c.reset(scope)
	}

	if !req.UseAll && !req.HasToken {
		projects := make([]provider.Project, 0, len(req.Names))
		for _, name := range req.Names {
			p, ok := c.named[name]
			if !ok {
				p = newProject(req.BaseURL, req.AccountName, name, name)
				c.named[name] = p
			}
			projects = append(projects, p)
		}
		return projects, nil
	}

	if !c.satisfies(req) {
		c.projects = make(map[string]provider.Project)
		c.complete = false
		if err := c.load(ctx, lister, req); err != nil {
			return nil, err
		}
	}

	return c.selectProjects(req), nil
}

func (c *Catalog) reset(scope string) {
	c.scope = scope
	c.projects = make(map[string]provider.Project)
	c.named = make(map[string]provider.Project)
	c.complete = false
}

func (c *Catalog) satisfies(req CatalogRequest) bool {
	if !c.complete {
		return false
	}
	if req.UseAll {
		return len(c.projects) > 0
	}
	for _, name := range req.Names {
		if _, ok := c.projects[name]; !ok {
			return false
		}
	}
	return true
}

func (c *Catalog) load(ctx context.Context, lister projectLister, req CatalogRequest) error {
	entries, err := lister.ListProjects(ctx)
	if err != nil {
		if errors.Is(err, provider.ErrMalformedResponse) {
			c.log.Warn("[Catalog] ignoring unreadable project list: %v", err)
			return nil
		}
		return fmt.Errorf("list projects: %w", err)
	}

	for _, e := range entries {
		if e.Name == "" || e.Slug == "" {
			continue
		}
		c.projects[e.Name] = newProject(req.BaseURL, req.AccountName, e.Name, e.Slug)
	}
	c.complete = true
	c.log.Debug("[Catalog] cached %d projects for %s", len(c.projects), req.AccountName)
	return nil
}

func (c *Catalog) selectProjects(req CatalogRequest) []provider.Project {
	if req.UseAll {
		projects := make([]provider.Project, 0, len(c.projects))
		for _, p := range c.projects {
			projects = append(projects, p)
		}
		sort.Slice(projects, func(i, j int) bool { return projects[i].Name < projects[j].Name })
		return projects
	}

	projects := make([]provider.Project, 0, len(req.Names))
	for _, name := range req.Names {
		if p, ok := c.projects[name]; ok {
			projects = append(projects, p)
		}
	}
	return projects
}
