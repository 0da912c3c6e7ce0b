package parse

import (
	"strings"
	"testing"
)

func TestParseProblemInfo_FencedJSON(t *testing.T) {
	info := ParseProblemInfo("```json\n{\"problem_statement\":\"Two Sum\"}\n```")
	if info == nil {
		t.Fatal("expected parsed info")
	}
	if info.ProblemStatement != "Two Sum" {
		t.Fatalf("got %q", info.ProblemStatement)
	}
}

func TestParseProblemInfo_PlainJSON(t *testing.T) {
	info := ParseProblemInfo(`{"problem_statement":"Two Sum","constraints":"n <= 10^5","difficulty":"easy"}`)
	if info == nil {
		t.Fatal("expected parsed info")
	}
	if info.Constraints != "n <= 10^5" {
		t.Fatalf("got %q", info.Constraints)
	}
	if info.Extra["difficulty"] != "easy" {
		t.Fatalf("open field not kept: %+v", info.Extra)
	}
}

func TestParseProblemInfo_Rejections(t *testing.T) {
	for _, in := range []string{"not json", "[1,2]", `"just a string"`, "42", "```json\n[1,2]\n```"} {
		if info := ParseProblemInfo(in); info != nil {
			t.Fatalf("expected nil for %q, got %+v", in, info)
		}
	}
}

func TestStripFence(t *testing.T) {
	tests := []struct{ in, want string }{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```JSON\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{`{"a":1}`, `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := StripFence(tt.in); got != tt.want {
			t.Fatalf("StripFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractThoughts_CapsAtFive(t *testing.T) {
	text := strings.Join([]string{
		"- first",
		"* second",
		"• third",
		"1. fourth",
		"2. fifth",
		"- sixth",
		"- seventh",
	}, "\n")
	got := ExtractThoughts(text)
	if len(got) != 5 {
		t.Fatalf("expected 5 thoughts, got %d: %v", len(got), got)
	}
	want := []string{"first", "second", "third", "fourth", "fifth"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("thought %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExtractThoughts_FallbackNeverEmpty(t *testing.T) {
	got := ExtractThoughts("no bullets anywhere in this text")
	if len(got) != 1 || got[0] == "" {
		t.Fatalf("expected single non-empty fallback, got %v", got)
	}
}

func TestNormalizeDebugContent_RewritesSynonyms(t *testing.T) {
	in := "issues identified\n- off by one\nProblems Found:\n- nil deref\nkey points\n- test more"
	got := NormalizeDebugContent(in)
	if !strings.Contains(got, "## Issues Identified") {
		t.Fatalf("missing canonical heading: %q", got)
	}
	if !strings.Contains(got, "## Key Points") {
		t.Fatalf("missing key points heading: %q", got)
	}
}

func TestNormalizeDebugContent_ExistingHeadingsUntouched(t *testing.T) {
	in := "## Issues Identified\nissues identified\n- x"
	if got := NormalizeDebugContent(in); got != in {
		t.Fatalf("content with headings must be unchanged, got %q", got)
	}
}

func TestBuildDebugResponse_ComplexityPinned(t *testing.T) {
	for _, raw := range []string{"no headings here", "## Issues Identified\n- bad loop", ""} {
		resp := BuildDebugResponse("x = 1", raw)
		if resp.TimeComplexity != "N/A - Debug mode" || resp.SpaceComplexity != "N/A - Debug mode" {
			t.Fatalf("complexity not pinned for %q: %+v", raw, resp)
		}
		if len(resp.Thoughts) == 0 {
			t.Fatalf("thoughts must never be empty")
		}
	}
}

func TestExtractCodeBlock(t *testing.T) {
	text := "Here you go:\n```python\nprint('hi')\n```\nDone."
	if got := ExtractCodeBlock(text); got != "print('hi')" {
		t.Fatalf("got %q", got)
	}
	if got := ExtractCodeBlock("no fences at all"); got != "no fences at all" {
		t.Fatalf("fallback to whole text, got %q", got)
	}
}

func TestParseSolution_WellFormed(t *testing.T) {
	text := "Thoughts:\n- use a hashmap\n- single pass\n\n```python\ndef solve(nums):\n    return nums\n```\n\n" +
		"Time complexity: O(n) because we iterate through the array only once. Lookups are constant time.\n" +
		"Space complexity: O(n) because the hashmap can hold every element. It grows linearly with input size.\n"
	sol := ParseSolution(text)
	if !strings.Contains(sol.Code, "def solve") {
		t.Fatalf("code = %q", sol.Code)
	}
	if len(sol.Thoughts) < 1 || sol.Thoughts[0] != "use a hashmap" {
		t.Fatalf("thoughts = %v", sol.Thoughts)
	}
	if !strings.Contains(sol.TimeComplexity, "O(n)") {
		t.Fatalf("time = %q", sol.TimeComplexity)
	}
	if !strings.Contains(sol.SpaceComplexity, "O(n)") {
		t.Fatalf("space = %q", sol.SpaceComplexity)
	}
}

func TestParseSolution_Fallbacks(t *testing.T) {
	sol := ParseSolution("just some prose with no structure")
	if sol.Code == "" {
		t.Fatal("code falls back to the whole text")
	}
	if len(sol.Thoughts) != 1 {
		t.Fatalf("thoughts fallback, got %v", sol.Thoughts)
	}
	if !strings.HasPrefix(sol.TimeComplexity, "O(") || !strings.HasPrefix(sol.SpaceComplexity, "O(") {
		t.Fatalf("complexity fallbacks must be fully formed: %q / %q", sol.TimeComplexity, sol.SpaceComplexity)
	}
}

func TestFormatComplexity(t *testing.T) {
	tests := []struct{ in, want string }{
		{"linear scan over the input", "O(n) - linear scan over the input"},
		{"O(n log n) sorting dominates", "O(n log n) - sorting dominates"},
		{"O(1) - constant extra space", "O(1) - constant extra space"},
		{"O(n) because we visit each node once", "O(n) because we visit each node once"},
		{"", "fallback"},
	}
	for _, tt := range tests {
		if got := formatComplexity(tt.in, "fallback"); got != tt.want {
			t.Fatalf("formatComplexity(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
