package main

import (
	"fmt"
	"strings"

	"github.com/jonathan/keyword-blog/internal/observability"
	"github.com/jonathan/keyword-blog/internal/ranking"
	"github.com/jonathan/keyword-blog/internal/types"
	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score keyword quality and content coverage",
	Long:  "Fills in phrase quality scores for a keyword research record and, when content is given, measures how well the content covers its keywords (0-100).",
	RunE:  runScore,
}

var (
	scoreRecord  string
	scoreContent string
	scoreTitle   string
	scoreOutput  string
)

func init() {
	scoreCmd.Flags().StringVarP(&scoreRecord, "record", "r", "", "KeywordRecord JSON file (required)")
	scoreCmd.Flags().StringVarP(&scoreContent, "content", "c", "", "HTML content file, or - for stdin")
	scoreCmd.Flags().StringVarP(&scoreTitle, "title", "t", "", "Title of the content")
	scoreCmd.Flags().StringVarP(&scoreOutput, "out", "o", "", "Write the scores JSON to this file instead of stdout")

	if err := scoreCmd.MarkFlagRequired("record"); err != nil {
		panic(fmt.Sprintf("failed to mark record flag as required: %v", err))
	}

	rootCmd.AddCommand(scoreCmd)
}

// scoreOutcome is the score command's result.
type scoreOutcome struct {
	Keyword    string         `json:"keyword"`
	Phrases    []types.Phrase `json:"phrases"`
	MatchScore *int           `json:"match_score,omitempty"`
}

func runScore(cmd *cobra.Command, _ []string) error {
	rec, err := loadRecord(scoreRecord)
	if err != nil {
		return err
	}

	var content string
	if scoreContent != "" {
		data, err := readInput(scoreContent, cmd.InOrStdin())
		if err != nil {
			return err
		}
		content = string(data)
	}

	outcome := scoreRecordContent(*rec, content, scoreTitle)
	if verbose {
		p := observability.NewPrinter(cmd.ErrOrStderr())
		p.PrintKeywordQuality(outcome.Phrases)
		if outcome.MatchScore != nil {
			p.PrintMatchScore(scoreTitle, *outcome.MatchScore)
		}
	}
	return writeJSON(cmd.OutOrStdout(), scoreOutput, outcome)
}

// scoreRecordContent scores phrase quality and, for non-blank content, the match.
func scoreRecordContent(rec types.KeywordRecord, content, title string) scoreOutcome {
	phrases := ranking.EnrichQualityScores(rec.Extracted.Phrases)
	if phrases == nil {
		phrases = []types.Phrase{}
	}
	outcome := scoreOutcome{Keyword: rec.Keyword, Phrases: phrases}
	if strings.TrimSpace(content) != "" {
		score := ranking.ScoreContentMatch(content, title, rec)
		outcome.MatchScore = &score
	}
	return outcome
}
