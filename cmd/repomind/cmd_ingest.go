package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ahmednasr/repomind/internal/acquirer"
	"github.com/ahmednasr/repomind/internal/config"
	"github.com/ahmednasr/repomind/internal/contextbuilder"
	"github.com/ahmednasr/repomind/internal/github"
	"github.com/ahmednasr/repomind/internal/repository"
	"github.com/ahmednasr/repomind/internal/service"
)

var contextOut string

func init() {
	rootCmd.AddCommand(ingestCmd, aliasesCmd)
	ingestCmd.Flags().StringVar(&contextOut, "context-out", "", "write the assembled context to this file")
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <url|alias>",
	Short: "Ingest a repository and print the result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadIngest()

		gh := github.NewClient(cfg.GitHubToken,
			github.WithBaseURL(cfg.GitHubAPIURL),
			github.WithRateLimit(cfg.GitHubRPS),
		)
		source, err := acquirer.New(cfg.Acquirer, gh, cfg.CloneTimeout)
		if err != nil {
			return err
		}

		store := repository.NewMemorySessionStore()
		svc := service.NewIngestService(source, contextbuilder.NewBuilder(), store)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		res, err := svc.Ingest(ctx, args[0])
		if err != nil {
			return fmt.Errorf("ingest %s: %w", args[0], err)
		}

		if contextOut != "" {
			sess, err := store.Get(ctx, res.SessionID)
			if err != nil {
				return err
			}
			if err := os.WriteFile(contextOut, []byte(sess.Context), 0o644); err != nil {
				return fmt.Errorf("write context: %w", err)
			}
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

var aliasesCmd = &cobra.Command{
	Use:   "aliases",
	Short: "List the built-in repository aliases",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ALIAS\tURL")
		for _, name := range service.Aliases() {
			url, err := service.ResolveAlias(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%s\n", name, url)
		}
		return w.Flush()
	},
}
