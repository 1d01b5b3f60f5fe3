// Package ranking scores extracted keywords and measures how well finished
// content covers a keyword research record.
package ranking

import (
	"math"
	"strings"

	"github.com/jonathan/keyword-blog/internal/types"
)

// Quality score weights
const (
	baseQuality         = 5.0
	h1PresenceBonus     = 2.5
	h2PresenceBonus     = 1.5
	h3PresenceBonus     = 1.0
	h1FrequencyFactor   = 0.75
	h1FrequencyCap      = 1.5
	h2FrequencyFactor   = 0.5
	h2FrequencyCap      = 1.0
	hierarchyFactor     = 0.5
	hierarchyCap        = 1.5
	mostlyH1Bonus       = 0.75
	mostlyH2Bonus       = 0.5
	longPhraseBonus     = 0.5
	longPhraseWords     = 3
	commonPhrasePenalty = 0.5
	commonPhraseFreq    = 20
	maxQuality          = 10.0
)

// ScorePhraseQuality estimates how relevant a phrase is from where and how
// often it appeared in headings. The result is in [0, 10] with one decimal.
func ScorePhraseQuality(p types.Phrase) float64 {
	score := baseQuality

	if p.InH1 {
		score += h1PresenceBonus
	}
	if p.InH2 {
		score += h2PresenceBonus
	}
	if p.InH3 {
		score += h3PresenceBonus
	}

	score += math.Min(float64(p.H1Frequency)*h1FrequencyFactor, h1FrequencyCap)
	score += math.Min(float64(p.H2Frequency)*h2FrequencyFactor, h2FrequencyCap)

	if n := len(p.HierarchyLevels); n > 0 {
		score += math.Min(float64(n)*hierarchyFactor, hierarchyCap)

		sum := 0
		for _, level := range p.HierarchyLevels {
			sum += level
		}
		switch avg := float64(sum) / float64(n); {
		case avg < 2:
			score += mostlyH1Bonus
		case avg < 3:
			score += mostlyH2Bonus
		}
	}

	if len(strings.Fields(p.Phrase)) >= longPhraseWords {
		score += longPhraseBonus
	}
	if p.Frequency > commonPhraseFreq {
		score -= commonPhrasePenalty
	}

	score = math.Max(0, math.Min(score, maxQuality))
	return math.Round(score*10) / 10
}

// QualityOf returns the stored quality score of p, computing it when absent.
func QualityOf(p types.Phrase) float64 {
	if p.QualityScore != nil {
		return *p.QualityScore
	}
	return ScorePhraseQuality(p)
}

// EnrichQualityScores returns a copy of phrases with every absent quality
// score filled in. Present scores are kept.
func EnrichQualityScores(phrases []types.Phrase) []types.Phrase {
	if phrases == nil {
		return nil
	}
	out := make([]types.Phrase, len(phrases))
	for i, p := range phrases {
		if p.QualityScore == nil {
			score := ScorePhraseQuality(p)
			p.QualityScore = &score
		}
		out[i] = p
	}
	return out
}
