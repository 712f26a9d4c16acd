package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"buildwatch-agent/src/contracts"
	"buildwatch-agent/src/provider"
	"buildwatch-agent/src/store"
)

var (
	listBuilds  bool
	listProject string
	listStatus  string
	listLimit   int
)

// statusCmd shows stored build status
var statusCmd = &cobra.Command{
	Use:   "status [commit]",
	Short: "Show the stored build status of a commit",
	Long: `Query Postgres for the latest build status of a commit, or list the
latest statuses with --list.

This command requires POSTGRES_DSN.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if listBuilds {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	Run: func(cmd *cobra.Command, args []string) {
		if appConfig.PostgresDSN == "" {
			fmt.Fprintln(os.Stderr, "ERROR: POSTGRES_DSN environment variable is required for status command")
			os.Exit(1)
		}
		if err := runStatus(context.Background(), args); err != nil {
			fail(err)
		}
	},
}

func runStatus(ctx context.Context, args []string) error {
	st, err := store.NewPostgresStore(appConfig.PostgresDSN)
	if err != nil {
		return fmt.Errorf("connect to Postgres: %w", err)
	}
	defer st.Close()

	if listBuilds {
		builds, err := st.ListBuilds(ctx, store.ListFilter{
			Project: listProject,
			Status:  listStatus,
			Limit:   listLimit,
		})
		if err != nil {
			return err
		}
		if len(builds) == 0 {
			fmt.Println("No builds stored yet.")
			return nil
		}
		for _, b := range builds {
			fmt.Printf("%.8s %-11s %-20s %s\n", b.CommitID, b.Status, b.Project, b.Summary)
		}
		return nil
	}

	commit, err := provider.ParseCommitID(args[0])
	if err != nil {
		return err
	}

	build, err := st.GetBuild(ctx, string(commit))
	if err != nil {
		var notFound store.ErrNotFound
		if errors.As(err, &notFound) {
			fmt.Printf("No build found for commit: %s\n", commit)
			return nil
		}
		return err
	}
	printBuild(build)
	return nil
}

func printBuild(b *contracts.BuildStatusUpdate) {
	fmt.Printf("Commit:     %s\n", b.CommitID)
	fmt.Printf("Project:    %s\n", b.Project)
	fmt.Printf("Version:    %s\n", b.Version)
	fmt.Printf("Branch:     %s\n", b.Branch)
	fmt.Printf("Status:     %s\n", b.Status)
	fmt.Printf("Summary:    %s\n", b.Summary)
	if b.TestsResultText != "" {
		fmt.Printf("Tests:      %s\n", b.TestsResultText)
	}
	fmt.Printf("URL:        %s\n", b.URL)
	if b.PullRequestLabel != "" {
		fmt.Printf("PR:         %s %s\n", b.PullRequestLabel, b.PullRequestTitle)
		if b.PullRequestURL != "" {
			fmt.Printf("            %s\n", b.PullRequestURL)
		}
	}
	fmt.Printf("Updated:    %s\n", b.Timestamp)
}

func init() {
	statusCmd.Flags().BoolVar(&listBuilds, "list", false, "list the latest builds instead of one commit")
	statusCmd.Flags().StringVar(&listProject, "project", "", "with --list, only this project")
	statusCmd.Flags().StringVar(&listStatus, "status", "", "with --list, only this status")
	statusCmd.Flags().IntVar(&listLimit, "limit", 20, "with --list, max builds")
}
