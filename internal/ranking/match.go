package ranking

import (
	"math"
	"regexp"
	"strings"

	"github.com/jonathan/keyword-blog/internal/types"
)

// Match score weights
const (
	highQualityWeight   = 1.5
	mediumQualityWeight = 1.25
	lowQualityWeight    = 1.0
	highQualityScore    = 7.0
	mediumQualityScore  = 5.0
	headingMultiplier   = 1.25
	partialCredit       = 0.25
	wordWeightCap       = 3
	leniencyFloor       = 15.0
	maxMatchScore       = 100.0
)

// ScoreContentMatch measures how well title and content cover the phrases and
// single words of rec, as an integer percentage in [0, 100]. Keywords that do
// not occur still earn partial credit, and a fixed floor is added so minimal
// overlap does not read as zero. Empty content or an empty keyword set scores 0.
func ScoreContentMatch(content, title string, rec types.KeywordRecord) int {
	if strings.TrimSpace(content) == "" {
		return 0
	}

	combined := strings.ToLower(title + " " + content)
	score, maxScore := 0.0, 0.0

	for _, p := range rec.Extracted.Phrases {
		text := strings.ToLower(strings.TrimSpace(p.Phrase))
		if text == "" {
			continue
		}
		weight := phraseWeight(p)
		score += credit(weight, strings.Count(combined, text) > 0)
		maxScore += weight
	}

	for _, w := range rec.Extracted.SingleWords {
		text := strings.ToLower(strings.TrimSpace(w.Word))
		if text == "" {
			continue
		}
		weight := float64(min(max(w.Frequency, 0), wordWeightCap))
		score += credit(weight, countWord(combined, text) > 0)
		maxScore += weight
	}

	if maxScore == 0 {
		return 0
	}
	return int(math.Round(math.Min(leniencyFloor+100*score/maxScore, maxMatchScore)))
}

// phraseWeight derives the weight of a phrase from its quality score and
// heading placement.
func phraseWeight(p types.Phrase) float64 {
	weight := lowQualityWeight
	switch q := QualityOf(p); {
	case q >= highQualityScore:
		weight = highQualityWeight
	case q >= mediumQualityScore:
		weight = mediumQualityWeight
	}
	if p.InAnyHeading() {
		weight *= headingMultiplier
	}
	return weight
}

func credit(weight float64, matched bool) float64 {
	if matched {
		return weight
	}
	return weight * partialCredit
}

// countWord counts occurrences of word in text on word boundaries.
func countWord(text, word string) int {
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(word) + `\b`)
	if err != nil {
		return strings.Count(text, word)
	}
	return len(re.FindAllStringIndex(text, -1))
}
