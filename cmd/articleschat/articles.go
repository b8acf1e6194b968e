package main

import (
	"github.com/spf13/cobra"

	"ArticlesChat/internal/domain"
	"ArticlesChat/internal/infrastructure/storage"
)

func init() {
	rootCmd.AddCommand(articlesCmd)
}

// articlesCmd validates the corpus and lists what it holds
var articlesCmd = &cobra.Command{
	Use:   "articles",
	Short: "Validate the article collection and list its titles",
	Long: `Load the article document exactly as the server does, report shape errors,
and print every article id and title in corpus order. No model is called.

Examples:
  articleschat articles --corpus data/articles/article.json`,
	Args: cobra.NoArgs,
	RunE: runArticles,
}

func runArticles(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	logger := cliLogger(cfg)

	ctx, stop := commandContext(cmd)
	defer stop()

	store := storage.NewJSONStore(cfg.Corpus.Path, cfg.Corpus.Prefix(), logger.With("component", "storage.json"))
	articles, err := store.Load(ctx)
	if err != nil {
		return err
	}

	for _, article := range domain.ResolveIDs(articles) {
		printf(cmd, "%s  %s\n", article.ID, article.Title)
	}
	printf(cmd, "\n%d articles in %s\n", len(articles), store.Path())
	return nil
}
