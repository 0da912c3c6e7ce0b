package models

import "testing"

func TestSanitize_KeepsAllowedModel(t *testing.T) {
	for p, ms := range allowed {
		for _, m := range ms {
			if got := Sanitize(m, p, Solution, nil); got != m {
				t.Fatalf("Sanitize(%q, %q) = %q, want unchanged", m, p, got)
			}
		}
	}
}

func TestSanitize_TotalAndIdempotent(t *testing.T) {
	providers := []Provider{OpenAI, Gemini, Anthropic, Provider("bogus")}
	categories := []Category{Extraction, Solution, Debugging, Answer}
	inputs := []string{"", "gpt-9000", "gemini-2.0-flash", "claude-3-opus-20240229", "???"}

	for _, p := range providers {
		for _, c := range categories {
			for _, in := range inputs {
				out := Sanitize(in, p, c, nil)
				if out == "" {
					t.Fatalf("Sanitize(%q, %q, %q) returned empty", in, p, c)
				}
				if Valid(p) && !Allowed(p, out) {
					t.Fatalf("Sanitize(%q, %q, %q) = %q not on allow-list", in, p, c, out)
				}
				if again := Sanitize(out, p, c, nil); again != out {
					t.Fatalf("Sanitize not idempotent: %q -> %q -> %q", in, out, again)
				}
			}
		}
	}
}

func TestSanitize_ReplacesUnknownWithCategoryDefault(t *testing.T) {
	if got := Sanitize("gpt-9000", OpenAI, Answer, nil); got != "gpt-4o-mini" {
		t.Fatalf("got %q, want answer default gpt-4o-mini", got)
	}
	if got := Sanitize("gpt-4o", Gemini, Extraction, nil); got != "gemini-2.0-flash" {
		t.Fatalf("got %q, want gemini extraction default", got)
	}
}

func TestResolveOpenAIModel(t *testing.T) {
	tests := []struct {
		name     string
		selected string
		custom   string
		baseURL  string
		want     string
	}{
		{"custom model always wins", "gpt-4o", "my-local-model", "http://localhost:8080/v1", "my-local-model"},
		{"custom model wins without base url", "gpt-4o", "my-local-model", "", "my-local-model"},
		{"legacy id substituted on custom endpoint", "gpt-4o", "", "http://localhost:8080/v1", "gpt-4.1-mini"},
		{"legacy mini substituted on custom endpoint", "gpt-4o-mini", "", "http://localhost:8080/v1", "gpt-4.1-mini"},
		{"non-legacy id untouched on custom endpoint", "gpt-4.1", "", "http://localhost:8080/v1", "gpt-4.1"},
		{"official endpoint keeps legacy id", "gpt-4o", "", "", "gpt-4o"},
		{"official url spelled out keeps legacy id", "gpt-4o", "", OfficialOpenAIBaseURL, "gpt-4o"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveOpenAIModel(tt.selected, tt.custom, tt.baseURL); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShouldSendTemperature(t *testing.T) {
	if !ShouldSendTemperature("") {
		t.Fatal("empty base URL means official endpoint, temperature allowed")
	}
	if !ShouldSendTemperature(OfficialOpenAIBaseURL + "/") {
		t.Fatal("official endpoint with trailing slash, temperature allowed")
	}
	if ShouldSendTemperature("http://localhost:11434/v1") {
		t.Fatal("custom endpoint must omit temperature")
	}
}
