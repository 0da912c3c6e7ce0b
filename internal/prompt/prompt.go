// Package prompt builds provider-agnostic prompt text for the three
// task categories plus conversation answers. The wording of the
// response-format instructions is a contract with internal/parse:
// changing section headers or labels here breaks parsing downstream.
package prompt

import (
	"fmt"
	"strings"

	"github.com/tobyv/snapsolve/internal/parse"
	"github.com/tobyv/snapsolve/internal/util"
)

// Bundle is one system/user prompt pair, produced fresh per request.
type Bundle struct {
	System string
	User   string
}

const (
	noStatement   = "No problem statement provided."
	noConstraints = "No specific constraints provided."
	noInput       = "No example input provided."
	noOutput      = "No example output provided."
)

// Extraction builds the problem-extraction prompts. conversationContext
// is opaque transcript text; when present it is embedded verbatim and
// the system prompt announces it.
func Extraction(language, conversationContext string) Bundle {
	schema := util.GenerateJSONSchema(&parse.ProblemInfo{})

	var system strings.Builder
	system.WriteString("You are a coding challenge interpreter. Analyze the screenshots of the coding problem ")
	system.WriteString("and extract all relevant information. Return the information in JSON format with these fields: ")
	system.WriteString("problem_statement, constraints, example_input, example_output. ")
	if conversationContext != "" {
		system.WriteString("Use the conversation context provided to better understand the problem. ")
	}
	system.WriteString("Just return the structured JSON without any other text. The JSON must conform to this schema:\n")
	system.WriteString(schema)

	var user strings.Builder
	fmt.Fprintf(&user, "Extract the coding problem details from these screenshots. Remember to return only the JSON structure described. Preferred coding language we gonna use for this problem is %s.", language)
	if conversationContext != "" {
		user.WriteString("\n\nThe following is the transcript of the conversation so far; it may contain hints about the problem being discussed:\n\n")
		user.WriteString(conversationContext)
	}

	return Bundle{System: system.String(), User: user.String()}
}

// Solution builds the solution-generation prompt from extracted problem
// info. Absent fields get explicit fallbacks so the prompt never
// contains empty sections.
func Solution(info *parse.ProblemInfo, language string) Bundle {
	if info == nil {
		info = &parse.ProblemInfo{}
	}
	user := fmt.Sprintf(`Generate a detailed solution for the following coding problem:

PROBLEM STATEMENT:
%s

CONSTRAINTS:
%s

EXAMPLE INPUT:
%s

EXAMPLE OUTPUT:
%s

LANGUAGE: %s

I need the response in the following format:
1. Code: A clean, optimized implementation in %s
2. Your Thoughts: A list of key insights and reasoning behind your approach
3. Time complexity: O(X) with a detailed explanation (at least 2 sentences)
4. Space complexity: O(X) with a detailed explanation (at least 2 sentences)

For complexity explanations, please be thorough. For example: "Time complexity: O(n) because we iterate through the array only once. This is optimal as we need to examine each element at least once to find the solution." or "Space complexity: O(n) because in the worst case, we store all elements in the hashmap. The additional space scales linearly with the input size."

Your solution should be efficient, well-commented, and handle edge cases.`,
		orFallback(info.ProblemStatement, noStatement),
		orFallback(info.Constraints, noConstraints),
		orFallback(info.ExampleInput, noInput),
		orFallback(info.ExampleOutput, noOutput),
		language, language,
	)
	return Bundle{
		System: "You are an expert coding interview assistant. Provide clear, optimal solutions with detailed explanations.",
		User:   user,
	}
}

// Debug builds the debugging prompts. The five section headers and
// their order are a contract the parser and UI depend on.
func Debug(info *parse.ProblemInfo, language string) Bundle {
	if info == nil {
		info = &parse.ProblemInfo{}
	}
	system := "You are a coding interview assistant helping debug and improve solutions. " +
		"Analyze these screenshots which include either error messages, incorrect outputs, or test cases, and provide detailed debugging help.\n\n" +
		"Your response MUST follow this exact structure with these section headers (use ### for headers):\n" +
		"### Issues Identified\n" +
		"- List each issue as a bullet point with clear explanation\n\n" +
		"### Specific Improvements and Corrections\n" +
		"- List specific code changes needed as bullet points\n\n" +
		"### Optimizations\n" +
		"- List any performance optimizations if applicable\n\n" +
		"### Explanation of Changes Needed\n" +
		"Here provide a clear explanation of why the changes are needed\n\n" +
		"### Key Points\n" +
		"- Summary bullet points of the most important takeaways\n\n" +
		"If you include code examples, use proper markdown code blocks with language specification."

	user := fmt.Sprintf(`I'm solving this coding problem: %s in %s. I need help with debugging or improving my solution.

Here are screenshots of my code, the errors or test cases. Please provide a detailed analysis with:
1. What issues you found in my code
2. Specific improvements and corrections
3. Any optimizations that would make the solution better
4. A clear explanation of the changes needed

Include code examples where relevant.`,
		orFallback(info.ProblemStatement, noStatement), language)

	return Bundle{System: system, User: user}
}

// Answer builds the conversation-mode prompt that drafts an interview
// answer over the opaque transcript text.
func Answer(conversationContext string) Bundle {
	system := "You are a real-time interview assistant. Given the transcript of an ongoing technical interview, " +
		"draft a concise, natural-sounding answer to the most recent interviewer question. " +
		"Answer in first person, stay factual, and keep it under 150 words."
	user := "Here is the conversation so far:\n\n" + conversationContext +
		"\n\nDraft the answer the candidate should give next."
	return Bundle{System: system, User: user}
}

func orFallback(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
