package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/keyword-blog/internal/db"
	"github.com/jonathan/keyword-blog/internal/generation"
	"github.com/jonathan/keyword-blog/internal/metrics"
	"github.com/jonathan/keyword-blog/internal/observability"
	"github.com/jonathan/keyword-blog/internal/types"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate and store a blog post for a keyword research record",
	Long:  "Runs the full pipeline for one record: prompt, generation service call, decoding, field completion, slug allocation and persistence.",
	RunE:  runGenerate,
}

var (
	generateKeywordID  string
	generateTargetType string
	generateTargetFor  string
	generateOutput     string
)

func init() {
	generateCmd.Flags().StringVarP(&generateKeywordID, "keyword-id", "k", "", "Keyword research record ID (required)")
	generateCmd.Flags().StringVar(&generateTargetType, "target-type", types.TargetTypeBlogContent, "System prompt type")
	generateCmd.Flags().StringVar(&generateTargetFor, "target-for", types.TargetForCustomer, "System prompt audience (customer_kr or service_provider_kr)")
	generateCmd.Flags().StringVarP(&generateOutput, "out", "o", "", "Write the result JSON to this file instead of stdout")

	if err := generateCmd.MarkFlagRequired("keyword-id"); err != nil {
		panic(fmt.Sprintf("failed to mark keyword-id flag as required: %v", err))
	}

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	keywordID, err := uuid.Parse(generateKeywordID)
	if err != nil {
		return fmt.Errorf("invalid keyword ID %q: %w", generateKeywordID, err)
	}
	req := types.GenerateRequest{TargetType: generateTargetType, TargetFor: generateTargetFor}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid target: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	generator := newGenerator(cfg, database, client, log, metrics.New())
	res, err := generator.Generate(ctx, generation.Request{
		KeywordID:  keywordID,
		TargetType: req.TargetType,
		TargetFor:  req.TargetFor,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", generation.UserMessage(err), err)
	}

	if cfg.Verbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintGenerationResult(res)
	}
	return writeJSON(cmd.OutOrStdout(), generateOutput, res)
}
