package appveyor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"buildwatch-agent/src/logger"
	"buildwatch-agent/src/provider"
)

// Name is the registry key of the AppVeyor build server.
const Name = "appveyor"

// DefaultPollInterval is how long the poll loop sleeps between refreshes of
// in-progress builds.
const DefaultPollInterval = 5 * time.Second

func init() {
	// One catalog per process, owned by the factory and shared by its adapters.
	catalog := NewCatalog(nil)
	provider.RegisterProvider(Name, func(settings provider.Settings, opts provider.Options) (provider.BuildServer, error) {
		return New(settings, opts, catalog)
	})
}

// Adapter is the AppVeyor BuildServer.
type Adapter struct {
	settings provider.Settings
	opts     provider.Options
	client   *Client
	catalog  *Catalog
	dedup    *provider.Deduplicator // commits delivered by any Watch of this adapter
	log      logger.Logger
}

// New creates an adapter resolving its projects through catalog. A nil
// catalog gives the adapter a private one.
func New(settings provider.Settings, opts provider.Options, catalog *Catalog) (*Adapter, error) {
	if strings.TrimSpace(settings.AccountName) == "" {
		return nil, provider.ErrMissingAccount
	}
	if settings.BaseURL == "" {
		settings.BaseURL = DefaultBaseURL
	}
	settings.BaseURL = strings.TrimRight(settings.BaseURL, "/")
	if settings.PollInterval <= 0 {
		settings.PollInterval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewSilentLogger()
	}
	if catalog == nil {
		catalog = NewCatalog(opts.Logger)
	}

	return &Adapter{
		settings: settings,
		opts:     opts,
		client:   NewClient(settings.BaseURL, settings.AccountToken, opts.HTTPClient),
		catalog:  catalog,
		dedup:    provider.NewDeduplicator(),
		log:      opts.Logger,
	}, nil
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return Name
}

// Watch streams the status of every build of the configured projects whose
// commit passes filter. A commit is delivered once per adapter, across all of
// its Watch calls, then re-delivered within that call whenever its status or
// test results change.
func (a *Adapter) Watch(ctx context.Context, filter provider.CommitFilter) *provider.Stream {
	return provider.NewStream(ctx, a.opts.Executor, func(ctx context.Context, emit provider.Emit) error {
		names, useAll := a.settings.ProjectFilter(a.opts.Expand)

		projects, err := a.catalog.Resolve(ctx, a.client, CatalogRequest{
			BaseURL:     a.settings.BaseURL,
			AccountName: a.settings.AccountName,
			HasToken:    a.client.HasToken(),
			Names:       names,
			UseAll:      useAll,
		})
		if err != nil {
			return fmt.Errorf("resolve projects: %w", err)
		}
		a.log.Info("[AppVeyor] watching %d projects of %s", len(projects), a.settings.AccountName)

		p := &poller{
			client:    a.client,
			extractor: NewExtractor(a.settings.BaseURL, filter, a.log),
			dedup:     a.dedup,
			log:       a.log,
			interval:  a.settings.PollInterval,
			loadTests: a.settings.LoadTestResults,
		}
		return p.run(ctx, projects, emit)
	})
}
