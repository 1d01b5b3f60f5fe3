package main

import (
	"fmt"
	"strings"

	"github.com/jonathan/keyword-blog/internal/observability"
	"github.com/jonathan/keyword-blog/internal/rendering"
	"github.com/jonathan/keyword-blog/internal/types"
	"github.com/spf13/cobra"
)

var highlightCmd = &cobra.Command{
	Use:   "highlight",
	Short: "Highlight keywords in HTML content, or strip highlights",
	Long:  "Wraps keyword occurrences in annotation spans using a record's keywords and/or explicit terms. With --strip, removes existing annotation spans instead.",
	RunE:  runHighlight,
}

var (
	highlightContent string
	highlightRecord  string
	highlightPhrases []string
	highlightWords   []string
	highlightStrip   bool
	highlightOutput  string
)

func init() {
	highlightCmd.Flags().StringVarP(&highlightContent, "content", "c", "", "HTML content file, or - for stdin (required)")
	highlightCmd.Flags().StringVarP(&highlightRecord, "record", "r", "", "KeywordRecord JSON file supplying the terms")
	highlightCmd.Flags().StringSliceVar(&highlightPhrases, "phrases", nil, "Curated phrases (comma separated)")
	highlightCmd.Flags().StringSliceVar(&highlightWords, "words", nil, "Curated single words (comma separated)")
	highlightCmd.Flags().BoolVar(&highlightStrip, "strip", false, "Remove annotation spans instead of adding them")
	highlightCmd.Flags().StringVarP(&highlightOutput, "out", "o", "", "Write the HTML to this file instead of stdout")

	if err := highlightCmd.MarkFlagRequired("content"); err != nil {
		panic(fmt.Sprintf("failed to mark content flag as required: %v", err))
	}

	rootCmd.AddCommand(highlightCmd)
}

func runHighlight(cmd *cobra.Command, _ []string) error {
	data, err := readInput(highlightContent, cmd.InOrStdin())
	if err != nil {
		return err
	}
	content := string(data)

	if highlightStrip {
		return writeOutput(cmd.OutOrStdout(), highlightOutput, []byte(rendering.StripHighlights(content)))
	}

	rec := types.KeywordRecord{}
	if highlightRecord != "" {
		loaded, err := loadRecord(highlightRecord)
		if err != nil {
			return err
		}
		rec = *loaded
	}
	custom := curatedTerms(highlightPhrases, highlightWords)
	if highlightRecord == "" && custom == nil {
		return fmt.Errorf("either --record or --phrases/--words is required")
	}

	highlighted := rendering.Highlight(content, rec, custom)
	if verbose {
		annotations, err := rendering.Annotations(highlighted)
		if err != nil {
			return err
		}
		observability.NewPrinter(cmd.ErrOrStderr()).PrintAnnotations(rendering.Summarize(annotations))
	}
	return writeOutput(cmd.OutOrStdout(), highlightOutput, []byte(highlighted))
}

// curatedTerms builds CustomKeywords from flag values, or nil when none are set.
func curatedTerms(phrases, words []string) *types.CustomKeywords {
	phrases = nonBlank(phrases)
	words = nonBlank(words)
	if len(phrases) == 0 && len(words) == 0 {
		return nil
	}
	return &types.CustomKeywords{SingleWords: words, Phrases: phrases}
}

func nonBlank(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
