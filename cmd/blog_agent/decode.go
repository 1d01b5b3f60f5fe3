package main

import (
	"fmt"

	"github.com/jonathan/keyword-blog/internal/completion"
	"github.com/jonathan/keyword-blog/internal/observability"
	"github.com/jonathan/keyword-blog/internal/parsing"
	"github.com/jonathan/keyword-blog/internal/schemas"
	"github.com/jonathan/keyword-blog/internal/types"
	"github.com/spf13/cobra"
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode a raw generation response into a complete document",
	Long:  "Runs the cascading decoder and the field completion synthesizer over a saved generation service response. No network or database access.",
	RunE:  runDecode,
}

var (
	decodeInput    string
	decodeRecord   string
	decodeKeyword  string
	decodeLocation string
	decodeOutput   string
)

func init() {
	decodeCmd.Flags().StringVarP(&decodeInput, "input", "i", "", "Raw response file, or - for stdin (required)")
	decodeCmd.Flags().StringVarP(&decodeRecord, "record", "r", "", "KeywordRecord JSON file used for fallbacks")
	decodeCmd.Flags().StringVar(&decodeKeyword, "keyword", "", "Primary keyword used for fallbacks (overrides --record)")
	decodeCmd.Flags().StringVar(&decodeLocation, "location", "", "Location used for fallbacks (overrides --record)")
	decodeCmd.Flags().StringVarP(&decodeOutput, "out", "o", "", "Write the document JSON to this file instead of stdout")

	if err := decodeCmd.MarkFlagRequired("input"); err != nil {
		panic(fmt.Sprintf("failed to mark input flag as required: %v", err))
	}

	rootCmd.AddCommand(decodeCmd)
}

// decodeOutcome is the decode command's result.
type decodeOutcome struct {
	Document    *types.CandidateDocument `json:"document"`
	Strategy    parsing.Strategy         `json:"decoder_strategy"`
	Synthesized []string                 `json:"synthesized_fields"`
}

func runDecode(cmd *cobra.Command, _ []string) error {
	raw, err := readInput(decodeInput, cmd.InOrStdin())
	if err != nil {
		return err
	}

	rec := types.KeywordRecord{}
	if decodeRecord != "" {
		loaded, err := loadRecord(decodeRecord)
		if err != nil {
			return err
		}
		rec = *loaded
	}
	if decodeKeyword != "" {
		rec.Keyword = decodeKeyword
	}
	if decodeLocation != "" {
		rec.Location = decodeLocation
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts := completion.Options{
		CallToActionURL:  cfg.CallToActionURL,
		CallToActionText: cfg.CallToActionText,
		DefaultLocation:  cfg.DefaultLocation,
	}

	outcome, err := decodeResponse(string(raw), rec, opts)
	if err != nil {
		return err
	}
	if cfg.Verbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintDocument(outcome.Document, outcome.Strategy, outcome.Synthesized)
	}
	return writeJSON(cmd.OutOrStdout(), decodeOutput, outcome)
}

// decodeResponse decodes and completes raw, then checks the candidate schema.
func decodeResponse(raw string, rec types.KeywordRecord, opts completion.Options) (*decodeOutcome, error) {
	decoded := parsing.Decode(raw)
	doc, report, err := completion.Complete(decoded.Fields, rec, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to complete document: %w", err)
	}
	if err := schemas.ValidateDocument(schemas.CandidateDocumentSchema, doc); err != nil {
		return nil, fmt.Errorf("completed document failed validation: %w", err)
	}

	synthesized := report.Synthesized
	if synthesized == nil {
		synthesized = []string{}
	}
	return &decodeOutcome{Document: doc, Strategy: decoded.Strategy, Synthesized: synthesized}, nil
}
