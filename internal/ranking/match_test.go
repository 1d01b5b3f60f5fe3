package ranking

import (
	"strings"
	"testing"

	"github.com/jonathan/keyword-blog/internal/types"
	"github.com/stretchr/testify/assert"
)

func solarRecord() types.KeywordRecord {
	return types.KeywordRecord{
		Keyword:  "solar panels",
		Location: "Sydney",
		Extracted: types.ExtractedKeywords{
			Phrases: []types.Phrase{
				{Phrase: "solar panels", Frequency: 5},
			},
			SingleWords: []types.SingleWord{
				{Word: "install", Frequency: 10},
			},
		},
	}
}

func TestScoreContentMatch(t *testing.T) {
	tests := []struct {
		name    string
		content string
		title   string
		want    int
	}{
		{name: "empty content", content: "", title: "Solar Panels", want: 0},
		{name: "whitespace content", content: "  \n ", title: "Solar Panels", want: 0},
		{name: "full coverage", content: "<p>We install solar panels.</p>", want: 100},
		{name: "nothing matches", content: "<p>Nothing relevant here.</p>", want: 40},
		// phrase 1.25 matched, word 3 missed: 15 + 100*(1.25+0.75)/4.25
		{name: "phrase only", content: "<p>Solar panels explained.</p>", want: 62},
		{name: "title counts", content: "<p>We install them.</p>", title: "Solar Panels", want: 100},
		{name: "case insensitive", content: "<P>INSTALL SOLAR PANELS</P>", want: 100},
		{name: "word boundary", content: "<p>solar panels installation</p>", want: 62},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScoreContentMatch(tt.content, tt.title, solarRecord()))
		})
	}
}

func TestScoreContentMatch_EmptyKeywordSet(t *testing.T) {
	assert.Equal(t, 0, ScoreContentMatch("<p>anything</p>", "title", types.KeywordRecord{Keyword: "x"}))

	zeroWeight := types.KeywordRecord{Extracted: types.ExtractedKeywords{
		SingleWords: []types.SingleWord{{Word: "anything", Frequency: 0}},
	}}
	assert.Equal(t, 0, ScoreContentMatch("<p>anything</p>", "", zeroWeight))
}

func TestScoreContentMatch_QualityAndHeadingWeights(t *testing.T) {
	high := 8.0
	rec := types.KeywordRecord{Extracted: types.ExtractedKeywords{
		Phrases: []types.Phrase{
			{Phrase: "best deal", QualityScore: &high, InH2: true}, // 1.5 * 1.25 = 1.875
			{Phrase: "cheap quote"},                                // quality 5 -> 1.25
		},
	}}
	// 15 + 100 * (1.875 + 0.3125) / 3.125 = 85
	assert.Equal(t, 85, ScoreContentMatch("<p>the best deal</p>", "", rec))
}

func TestScoreContentMatch_RegexMetacharacters(t *testing.T) {
	rec := types.KeywordRecord{Extracted: types.ExtractedKeywords{
		Phrases:     []types.Phrase{{Phrase: "c++ (advanced)"}},
		SingleWords: []types.SingleWord{{Word: "a.b", Frequency: 2}},
	}}
	score := ScoreContentMatch("<p>learn c++ (advanced) and axb</p>", "", rec)
	assert.GreaterOrEqual(t, score, 0)
	assert.LessOrEqual(t, score, 100)
	// phrase matched literally, "a.b" does not match "axb": 15 + 100*1.75/3.25
	assert.Equal(t, 69, score)
}

func TestScoreContentMatch_Properties(t *testing.T) {
	rec := types.KeywordRecord{Extracted: types.ExtractedKeywords{
		Phrases: []types.Phrase{
			{Phrase: "solar panels", InH1: true},
			{Phrase: "battery storage", Frequency: 30},
			{Phrase: "feed in tariff", InH3: true, HierarchyLevels: []int{3}},
		},
		SingleWords: []types.SingleWord{
			{Word: "inverter", Frequency: 7},
			{Word: "rebate", Frequency: 1},
			{Word: "kwh", Frequency: 2},
		},
	}}

	var all []string
	for _, p := range rec.Extracted.Phrases {
		all = append(all, p.Phrase)
	}
	for _, w := range rec.Extracted.SingleWords {
		all = append(all, w.Word)
	}
	rich := "<p>" + strings.Repeat(strings.Join(all, " ")+". ", 10) + "</p>"

	contents := []string{"", "<p>unrelated</p>", "<p>solar panels only</p>", rich}
	for _, c := range contents {
		first := ScoreContentMatch(c, "Title", rec)
		assert.Equal(t, first, ScoreContentMatch(c, "Title", rec), "deterministic")
		assert.GreaterOrEqual(t, first, 0)
		assert.LessOrEqual(t, first, 100)
	}

	assert.GreaterOrEqual(t, ScoreContentMatch(rich, "", rec), ScoreContentMatch("", "", rec))
	assert.Equal(t, 100, ScoreContentMatch(rich, "", rec))
}
