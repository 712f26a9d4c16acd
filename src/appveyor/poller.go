package appveyor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"buildwatch-agent/src/logger"
	"buildwatch-agent/src/provider"
)

// poller is the single worker behind one Watch call. It owns the active
// working set; the dedup set belongs to the adapter.
type poller struct {
	client    *Client
	extractor *Extractor
	dedup     *provider.Deduplicator
	log       logger.Logger
	interval  time.Duration
	loadTests bool
}

// run discovers builds of every project, delivers each new commit once and
// then refreshes in-progress builds every interval until none are left.
// Cancellation at any fetch boundary returns nil.
func (p *poller) run(ctx context.Context, projects []provider.Project, emit provider.Emit) error {
	builds, err := p.discover(ctx, projects)
	if err != nil || ctx.Err() != nil {
		return err
	}

	for _, b := range builds {
		if err := emit(*b); err != nil {
			return err
		}
	}

	if p.loadTests {
		if err := p.enrich(ctx, builds, emit); err != nil || ctx.Err() != nil {
			return err
		}
	}

	active := make([]*provider.BuildRecord, 0, len(builds))
	for _, b := range builds {
		if b.Status == provider.StatusInProgress {
			active = append(active, b)
		}
	}
	p.log.Debug("[AppVeyor] delivered %d builds, %d in progress", len(builds), len(active))

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for len(active) > 0 {
		timer.Reset(p.interval)
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		next := active[:0]
		for _, b := range active {
			if ctx.Err() != nil {
				return nil
			}
			changed, err := p.refresh(ctx, b)
			if err != nil {
				return err
			}
			if changed {
				if err := emit(*b); err != nil {
					return err
				}
			}
			if b.Status == provider.StatusInProgress {
				next = append(next, b)
			}
		}
		active = next
	}

	return nil
}

// discover fetches one history page per project and returns the builds of
// commits not delivered before, most recent first.
func (p *poller) discover(ctx context.Context, projects []provider.Project) ([]*provider.BuildRecord, error) {
	var found []*provider.BuildRecord
	for _, project := range projects {
		if ctx.Err() != nil {
			return nil, nil
		}

		history, err := p.client.GetHistory(ctx, project.QueryURL)
		if err != nil {
			if errors.Is(err, provider.ErrMalformedResponse) {
				p.log.Warn("[AppVeyor] %s: unreadable history, no builds: %v", project.Name, err)
				continue
			}
			if ctx.Err() != nil {
				return nil, nil
			}
			return nil, fmt.Errorf("fetch history for %s: %w", project.Name, err)
		}

		found = append(found, p.extractor.Extract(project, history)...)
	}
	return p.dedup.Filter(found), nil
}

// enrich loads test counts for builds that finished before discovery.
func (p *poller) enrich(ctx context.Context, builds []*provider.BuildRecord, emit provider.Emit) error {
	for _, b := range builds {
		if !b.Status.HasDuration() {
			continue
		}
		if ctx.Err() != nil {
			return nil
		}

		detail, err := p.detail(ctx, b)
		if err != nil {
			return err
		}
		if detail == nil {
			continue
		}
		p.apply(b, detail)
		if err := emit(*b); err != nil {
			return err
		}
	}
	return nil
}

// refresh reloads one build and reports whether anything visible changed.
// A build whose detail cannot be fetched is left untouched until the next
// cycle.
func (p *poller) refresh(ctx context.Context, b *provider.BuildRecord) (bool, error) {
	version := b.Version
	detail, err := p.detail(ctx, b)
	if err != nil || detail == nil {
		return false, err
	}
	changed := p.apply(b, detail)
	return changed || b.Version != version, nil
}

// apply folds a build detail into b. Status only moves on while b is in
// progress.
func (p *poller) apply(b *provider.BuildRecord, detail *buildDetail) bool {
	job := detail.latestJob()
	status, tests := b.Status, b.TestsResultText

	if b.Status == provider.StatusInProgress {
		b.Status = ParseStatus(job.Status)
		if b.Status.HasDuration() {
			d := buildDuration(detail.Started, detail.Created, detail.Updated)
			b.Duration = &d
		}
	}
	if text := testsResultText(job); text != "" {
		b.TestsResultText = text
	}

	return b.Status != status || b.TestsResultText != tests
}

// detail fetches the build detail, recovering once from a version shift.
// It returns nil without error when the build is unavailable this cycle;
// only malformed payloads are errors. b moves to the new version only once
// its detail has been fetched.
func (p *poller) detail(ctx context.Context, b *provider.BuildRecord) (*buildDetail, error) {
	detail, err := p.client.GetBuildDetail(ctx, b.DetailURL)
	if err == nil || errors.Is(err, provider.ErrMalformedResponse) {
		return detail, err
	}
	if ctx.Err() != nil {
		return nil, nil
	}

	p.log.Debug("[AppVeyor] %s #%s: detail fetch failed, looking for a new version: %v", b.Project, b.Version, err)
	version, err := p.shiftedVersion(ctx, b)
	if err != nil {
		if ctx.Err() == nil {
			p.log.Warn("[AppVeyor] %s #%s: version lookup failed: %v", b.Project, b.Version, err)
		}
		return nil, nil
	}

	if ctx.Err() != nil {
		return nil, nil
	}

	moved := *b
	setVersion(&moved, version)
	detail, err = p.client.GetBuildDetail(ctx, moved.DetailURL)
	if err != nil && !errors.Is(err, provider.ErrMalformedResponse) {
		if ctx.Err() == nil {
			p.log.Warn("[AppVeyor] %s #%s: detail fetch failed after version change to %s: %v", b.Project, b.Version, version, err)
		}
		return nil, nil
	}

	p.log.Info("[AppVeyor] %s: build %s moved from version %s to %s", b.Project, b.BuildID, b.Version, version)
	setVersion(b, version)
	return detail, err
}

// shiftedVersion reads the version of the single build following b.
func (p *poller) shiftedVersion(ctx context.Context, b *provider.BuildRecord) (string, error) {
	url, err := shiftedVersionURL(b)
	if err != nil {
		return "", err
	}

	history, err := p.client.GetHistory(ctx, url)
	if err != nil {
		return "", err
	}
	if len(history.Builds) == 0 {
		return "", fmt.Errorf("no build after %s", b.BuildID)
	}

	var entry struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(history.Builds[0], &entry); err != nil {
		return "", fmt.Errorf("decode build: %w", err)
	}
	if entry.Version == "" {
		return "", fmt.Errorf("build after %s has no version", b.BuildID)
	}
	return entry.Version, nil
}
