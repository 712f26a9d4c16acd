// Demo program to showcase the buildwatch TUI with a synthetic build stream.
package main

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"math/rand"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"buildwatch-agent/src/provider"
	"buildwatch-agent/src/tui"
)

var branches = []string{"main", "release/4.2", "feature/dark-mode", "fix/\x1b[31mansi\x1b[0m-branch", "renovate/go-1.24"}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := provider.NewStream(ctx, nil, simulate)
	model := tui.NewModel("AppVeyor · demo", stream, cancel)

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

func commit(i int) provider.CommitID {
	sum := sha1.Sum([]byte(fmt.Sprintf("demo-%d", i)))
	return provider.CommitID(hex.EncodeToString(sum[:]))
}

// simulate discovers a batch of builds, then finishes the running ones one
// by one, the way the poll loop reports them.
func simulate(ctx context.Context, emit provider.Emit) error {
	start := time.Now().Add(-time.Hour)
	var running []provider.BuildRecord

	for i := 0; i < 12; i++ {
		b := provider.BuildRecord{
			Project:   "gitextensions",
			Version:   fmt.Sprintf("4.2.0.%d", 17800+i),
			BuildID:   fmt.Sprint(5000 + i),
			Branch:    branches[i%len(branches)],
			CommitID:  commit(i),
			Status:    provider.StatusInProgress,
			StartDate: start.Add(time.Duration(i) * 5 * time.Minute),
			URL:       fmt.Sprintf("https://ci.appveyor.com/project/gitextensions/gitextensions/build/4.2.0.%d", 17800+i),
		}
		if i%3 == 0 {
			b.PullRequestLabel = fmt.Sprintf("PR#%d", 11000+i)
			b.PullRequestTitle = "Update translations"
			b.PullRequestURL = fmt.Sprintf("https://github.com/gitextensions/gitextensions/pull/%d", 11000+i)
		}
		if i < 7 {
			finish(&b)
		} else {
			running = append(running, b)
		}
		if err := emit(b); err != nil {
			return err
		}
	}

	for _, b := range running {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(1+rand.Intn(3)) * time.Second):
		}
		finish(&b)
		if err := emit(b); err != nil {
			return err
		}
	}
	return nil
}

func finish(b *provider.BuildRecord) {
	total := 400 + rand.Intn(50)
	failed := 0
	b.Status = provider.StatusSuccess
	if rand.Intn(4) == 0 {
		failed = 1 + rand.Intn(5)
		b.Status = provider.StatusFailure
	}
	d := time.Duration(8+rand.Intn(20)) * time.Minute
	b.Duration = &d
	if failed > 0 {
		b.TestsResultText = fmt.Sprintf("%d tests (%d failed, 0 skipped)", total, failed)
	} else {
		b.TestsResultText = fmt.Sprintf("%d tests", total)
	}
}
