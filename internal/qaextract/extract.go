package qaextract

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// Pair is one question with its answer
type Pair struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	SourceFile string `json:"source_file,omitempty"`
}

// blockPattern matches "问/问题：... 答/回答：..." blocks; the lookahead needs regexp2
var blockPattern = regexp2.MustCompile(
	`(?:问题|问)[：:]\s*(.*?)(?:回答|答)[：:]\s*(.*?)(?=(?:问题|问)[：:]|$)`,
	regexp2.Singleline,
)

var (
	questionPrefix = regexp2.MustCompile(`^(?:问题|问)[：:]`, regexp2.None)
	answerPrefix   = regexp2.MustCompile(`^(?:回答|答)[：:]`, regexp2.None)
)

// ExtractPairs finds question/answer pairs in text. When no labelled block is
// found it falls back to a line scan.
func ExtractPairs(text string) []Pair {
	pairs := extractBlocks(text)
	if len(pairs) > 0 {
		return pairs
	}
	return extractLines(text)
}

func extractBlocks(text string) []Pair {
	var pairs []Pair
	m, err := blockPattern.FindStringMatch(text)
	for err == nil && m != nil {
		pairs = append(pairs, Pair{
			Question: clean(m.GroupByNumber(1).String()),
			Answer:   clean(m.GroupByNumber(2).String()),
		})
		m, err = blockPattern.FindNextMatch(m)
	}
	return pairs
}

// extractLines pairs each answer line with the most recent question line
func extractLines(text string) []Pair {
	var pairs []Pair
	var question string
	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "问"):
			question = strings.TrimSpace(stripPrefix(questionPrefix, line))
		case strings.HasPrefix(line, "答"), strings.HasPrefix(line, "回答"):
			answer := strings.TrimSpace(stripPrefix(answerPrefix, line))
			pairs = append(pairs, Pair{Question: question, Answer: answer})
		}
	}
	return pairs
}

func stripPrefix(re *regexp2.Regexp, line string) string {
	out, err := re.Replace(line, "", 0, 1)
	if err != nil {
		return line
	}
	return out
}

func clean(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\n", " ")
}
