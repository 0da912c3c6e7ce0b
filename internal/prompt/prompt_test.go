package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/tobyv/snapsolve/internal/parse"
)

func TestExtraction_WithAndWithoutContext(t *testing.T) {
	withCtx := Extraction("python", "Interviewer: solve two sum")
	withoutCtx := Extraction("python", "")

	if withCtx.System == withoutCtx.System {
		t.Fatal("system prompt must differ when conversation context is present")
	}
	if strings.Contains(withoutCtx.System, "context provided") {
		t.Fatal("context-free system prompt must not claim context was provided")
	}
	if !strings.Contains(withCtx.User, "Interviewer: solve two sum") {
		t.Fatal("context must be embedded verbatim in the user prompt")
	}
	if strings.Contains(withoutCtx.User, "transcript") {
		t.Fatal("context-free user prompt must not mention a transcript")
	}
	for _, field := range []string{"problem_statement", "constraints", "example_input", "example_output"} {
		if !strings.Contains(withCtx.System, field) {
			t.Fatalf("system prompt missing field %q", field)
		}
	}
}

func TestSolution_EmbedsFieldsAndFormatInstructions(t *testing.T) {
	info := &parse.ProblemInfo{
		ProblemStatement: "Find two numbers adding to target",
		Constraints:      "n <= 10^5",
	}
	b := Solution(info, "golang")

	if !strings.Contains(b.User, "Find two numbers adding to target") {
		t.Fatal("problem statement missing")
	}
	if !strings.Contains(b.User, "golang") {
		t.Fatal("target language missing")
	}
	if !strings.Contains(b.User, "No example input provided.") {
		t.Fatal("absent example input must get the explicit fallback")
	}
	for _, label := range []string{"Time complexity:", "Space complexity:", "Your Thoughts:", "Code:"} {
		if !strings.Contains(b.User, label) {
			t.Fatalf("response-format instruction %q missing", label)
		}
	}
}

func TestSolution_NoUndefinedLeaks(t *testing.T) {
	// Round-trip: extraction with context, then solution from a parsed
	// result with absent optional fields.
	_ = Extraction("python", "context A")
	parsed := parse.ParseProblemInfo(`{"problem_statement":"Two Sum"}`)
	if parsed == nil {
		t.Fatal("setup: parse failed")
	}
	b := Solution(parsed, "python")
	if !strings.Contains(b.User, "python") {
		t.Fatal("language missing")
	}
	for _, bad := range []string{"undefined", "<nil>", "%!s"} {
		if strings.Contains(b.User, bad) {
			t.Fatalf("prompt leaks %q:\n%s", bad, b.User)
		}
	}
}

func TestDebug_HeaderContract(t *testing.T) {
	b := Debug(&parse.ProblemInfo{ProblemStatement: "Two Sum"}, "java")
	headers := []string{
		"### Issues Identified",
		"### Specific Improvements and Corrections",
		"### Optimizations",
		"### Explanation of Changes Needed",
		"### Key Points",
	}
	last := -1
	for _, h := range headers {
		idx := strings.Index(b.System, h)
		if idx < 0 {
			t.Fatalf("header %q missing", h)
		}
		if idx < last {
			t.Fatalf("header %q out of order", h)
		}
		last = idx
	}
	if !strings.Contains(b.User, "Two Sum") || !strings.Contains(b.User, "java") {
		t.Fatal("user prompt must embed statement and language")
	}
	for i := 1; i <= 4; i++ {
		if !strings.Contains(b.User, fmt.Sprintf("%d. ", i)) {
			t.Fatalf("request bullet %d missing", i)
		}
	}
}

func TestDebug_NilInfoUsesFallbackStatement(t *testing.T) {
	b := Debug(nil, "python")
	if !strings.Contains(b.User, "No problem statement provided.") {
		t.Fatal("nil info must produce the explicit fallback statement")
	}
}

func TestAnswer_EmbedsTranscript(t *testing.T) {
	b := Answer("Q: what is a goroutine?")
	if !strings.Contains(b.User, "Q: what is a goroutine?") {
		t.Fatal("transcript missing from user prompt")
	}
	if b.System == "" {
		t.Fatal("system prompt must not be empty")
	}
}
