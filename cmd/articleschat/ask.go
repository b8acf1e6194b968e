package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"ArticlesChat/internal/app"
)

var askJSON bool

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the raw response envelope as JSON")
	rootCmd.AddCommand(askCmd)
}

// askCmd runs the pipeline once from the command line
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask one question against the article collection",
	Long: `Run the select-and-answer pipeline once and print the answer with its references.

Examples:
  articleschat ask "What happened to solar output last quarter?"
  articleschat ask --json "fetch all articles"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	logger := cliLogger(cfg)

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := commandContext(cmd)
	defer stop()

	reply, err := application.Ask(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	if askJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if reply.FetchAll {
			return enc.Encode(map[string]any{"articles": reply.Articles})
		}
		return enc.Encode(reply.Result)
	}

	if reply.FetchAll {
		for _, article := range reply.Articles {
			printf(cmd, "%s  %s\n", article.ID, article.Title)
		}
		return nil
	}

	printf(cmd, "%s\n", strings.TrimSpace(reply.Result.Response))
	if len(reply.Result.References) == 0 {
		printf(cmd, "\n(no matching articles; answered from general knowledge)\n")
		return nil
	}
	printf(cmd, "\nReferences:\n")
	for _, ref := range reply.Result.References {
		printf(cmd, "  - %s [%s]\n", ref.Title, ref.ID)
	}
	return nil
}
