// Package parse turns free-form model output into structured results.
// Model prose is scraped with label-anchored patterns; every extraction
// has a documented fallback so a parsing miss degrades to a generic but
// valid value instead of an empty field.
package parse

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ProblemInfo is the structured result of the extraction step. Fields
// the model adds beyond the canonical four are kept in Extra.
type ProblemInfo struct {
	ProblemStatement string         `json:"problem_statement,omitempty"`
	Constraints      string         `json:"constraints,omitempty"`
	ExampleInput     string         `json:"example_input,omitempty"`
	ExampleOutput    string         `json:"example_output,omitempty"`
	Extra            map[string]any `json:"-"`
}

// SolutionResponse is the parsed solution-generation payload.
type SolutionResponse struct {
	Code            string   `json:"code"`
	Thoughts        []string `json:"thoughts"`
	TimeComplexity  string   `json:"time_complexity"`
	SpaceComplexity string   `json:"space_complexity"`
}

// DebugResponse is the parsed debugging payload. Debugging never
// computes complexity, so both fields carry the fixed marker.
type DebugResponse struct {
	Code            string   `json:"code"`
	DebugAnalysis   string   `json:"debug_analysis"`
	Thoughts        []string `json:"thoughts"`
	TimeComplexity  string   `json:"time_complexity"`
	SpaceComplexity string   `json:"space_complexity"`
}

const debugComplexity = "N/A - Debug mode"

const fallbackThought = "Solution approach based on efficiency and readability"

const (
	fallbackTimeComplexity = "O(n) - Linear time complexity because we only iterate through the input once. " +
		"Each element is processed exactly one time, and the hashmap lookups are O(1) operations."
	fallbackSpaceComplexity = "O(n) - Linear space complexity because we store elements in a hashmap. " +
		"In the worst case, we might need to store all elements before finding the solution pair."
)

// StripFence removes a single surrounding ``` fence, language tag
// optional and case-insensitive, and trims whitespace.
func StripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") {
		return s
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	s = strings.TrimSpace(s)
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		first := strings.TrimSpace(s[:nl])
		if first != "" && languageTagRe.MatchString(first) {
			s = strings.TrimSpace(s[nl+1:])
		}
	} else if languageTagRe.MatchString(s) {
		return ""
	}
	return s
}

var languageTagRe = regexp.MustCompile(`(?i)^[a-z0-9+#._-]+$`)

// ParseProblemInfo JSON-parses an extraction response after fence
// stripping. Returns nil on parse failure or when the top-level value is
// not a plain object; arrays and primitives are rejected.
func ParseProblemInfo(text string) *ProblemInfo {
	cleaned := StripFence(text)
	var raw any
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	info := &ProblemInfo{
		ProblemStatement: stringField(obj, "problem_statement"),
		Constraints:      stringField(obj, "constraints"),
		ExampleInput:     stringField(obj, "example_input"),
		ExampleOutput:    stringField(obj, "example_output"),
	}
	for k, v := range obj {
		switch k {
		case "problem_statement", "constraints", "example_input", "example_output":
		default:
			if info.Extra == nil {
				info.Extra = make(map[string]any)
			}
			info.Extra[k] = v
		}
	}
	return info
}

func stringField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

var bulletRe = regexp.MustCompile(`^\s*(?:[-*•]|\d+\.)\s+(.+)$`)

// ExtractThoughts scans for bulleted lines, strips the markers, and
// caps the result at five entries. The result is never empty.
func ExtractThoughts(text string) []string {
	var thoughts []string
	for _, line := range strings.Split(text, "\n") {
		m := bulletRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		thoughts = append(thoughts, strings.TrimSpace(m[1]))
		if len(thoughts) == 5 {
			break
		}
	}
	if len(thoughts) == 0 {
		return []string{fallbackThought}
	}
	return thoughts
}

var headingRe = regexp.MustCompile(`(?m)^#{1,6}\s`)

// Whole-line synonyms rewritten to canonical headings when the model
// ignored the requested markdown format.
var sectionSynonyms = []struct {
	re      *regexp.Regexp
	heading string
}{
	{regexp.MustCompile(`(?i)^\s*(issues identified|problems found|bugs found|identified issues)\s*:?\s*$`), "## Issues Identified"},
	{regexp.MustCompile(`(?i)^\s*(specific improvements and corrections|improvements|suggested changes|corrections)\s*:?\s*$`), "## Specific Improvements and Corrections"},
	{regexp.MustCompile(`(?i)^\s*(optimizations|performance improvements|optimisations)\s*:?\s*$`), "## Optimizations"},
	{regexp.MustCompile(`(?i)^\s*(explanation of changes needed|explanation|reasoning)\s*:?\s*$`), "## Explanation of Changes Needed"},
	{regexp.MustCompile(`(?i)^\s*(key points|summary|takeaways)\s*:?\s*$`), "## Key Points"},
}

// NormalizeDebugContent rewrites known section-name synonyms to
// canonical ## headings. Content that already carries markdown headings
// is returned unchanged.
func NormalizeDebugContent(text string) string {
	if headingRe.MatchString(text) {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		for _, syn := range sectionSynonyms {
			if syn.re.MatchString(line) {
				lines[i] = syn.heading
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

// BuildDebugResponse assembles the debugging payload from the code
// extracted by the caller and the raw model commentary.
func BuildDebugResponse(code, rawContent string) DebugResponse {
	normalized := NormalizeDebugContent(rawContent)
	return DebugResponse{
		Code:            code,
		DebugAnalysis:   normalized,
		Thoughts:        ExtractThoughts(normalized),
		TimeComplexity:  debugComplexity,
		SpaceComplexity: debugComplexity,
	}
}

var codeBlockRe = regexp.MustCompile("(?s)```(?:[a-zA-Z0-9+#._-]*)\\n?(.*?)```")

// ExtractCodeBlock returns the first fenced code block, or the whole
// text when no fence is present.
func ExtractCodeBlock(text string) string {
	if m := codeBlockRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}

var (
	thoughtsLabelRe = regexp.MustCompile(`(?i)(?:Thoughts:|Key Insights:|Reasoning:|Approach:)`)
	timeLabelRe     = regexp.MustCompile(`(?i)Time complexity:?`)
	spaceLabelRe    = regexp.MustCompile(`(?i)Space complexity:?`)
	capitalLineRe   = regexp.MustCompile(`\n\s*[A-Z]`)
	bigORe          = regexp.MustCompile(`(?i)O\([^)]+\)`)
)

// ParseSolution scrapes structure out of solution-generation prose.
// Every field has a fallback; none is ever left blank.
func ParseSolution(text string) SolutionResponse {
	return SolutionResponse{
		Code:            ExtractCodeBlock(text),
		Thoughts:        solutionThoughts(text),
		TimeComplexity:  formatComplexity(extractSpan(text, timeLabelRe, spaceLabelRe), fallbackTimeComplexity),
		SpaceComplexity: formatComplexity(extractSpan(text, spaceLabelRe, nil), fallbackSpaceComplexity),
	}
}

func solutionThoughts(text string) []string {
	loc := thoughtsLabelRe.FindStringIndex(text)
	if loc == nil {
		return []string{fallbackThought}
	}
	block := text[loc[1]:]
	if stop := timeLabelRe.FindStringIndex(block); stop != nil {
		block = block[:stop[0]]
	}
	return ExtractThoughts(block)
}

// extractSpan returns the text after the first match of label, bounded
// by stop when given, else by the next capitalized line.
func extractSpan(text string, label, stop *regexp.Regexp) string {
	loc := label.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	rest := text[loc[1]:]
	if stop != nil {
		if s := stop.FindStringIndex(rest); s != nil {
			rest = rest[:s[0]]
		}
	} else if s := capitalLineRe.FindStringIndex(rest); s != nil {
		rest = rest[:s[0]]
	}
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), ":"))
}

// formatComplexity normalizes a complexity span: prose without Big-O
// notation gets an "O(n) - " prefix; notation without a separating dash
// or "because" is reformatted as "<notation> - <remainder>".
func formatComplexity(span, fallback string) string {
	span = strings.TrimSpace(span)
	if span == "" {
		return fallback
	}
	notation := bigORe.FindString(span)
	if notation == "" {
		return "O(n) - " + span
	}
	if strings.Contains(span, "-") || strings.Contains(strings.ToLower(span), "because") {
		return span
	}
	rest := strings.TrimSpace(strings.Replace(span, notation, "", 1))
	if rest == "" {
		return span
	}
	return notation + " - " + rest
}
