package slug

import "testing"

// TestGenerate exercises the slug generator with typical titles, flow
// content, accented input, and degenerate strings.
func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// --- Normal titles ---
		{name: "simple two words", input: "Hello World", want: "hello-world"},
		{name: "title with year", input: "Hello World 2026", want: "hello-world-2026"},
		{name: "single word", input: "GoLang", want: "golang"},
		{name: "question title", input: "What is a Flow? A Short Guide", want: "what-is-a-flow-a-short-guide"},
		{name: "colon separated title", input: "Moderation: The Missing Manual", want: "moderation-the-missing-manual"},

		// --- Special characters ---
		{name: "punctuation marks", input: "Hello, World! How's it going?", want: "hello-world-hows-it-going"},
		{name: "ampersand and at sign", input: "Rock & Roll @ the Arena", want: "rock-roll-the-arena"},
		{name: "hash and dollar", input: "Issue #42 costs $100", want: "issue-42-costs-100"},
		{name: "slashes", input: "Frontend/Backend | Full Stack", want: "frontendbackend-full-stack"},
		{name: "version number", input: "Version 2.0.1", want: "version-201"},

		// --- Accents are folded, other scripts dropped ---
		{name: "french accents", input: "Café Résumé Noël", want: "cafe-resume-noel"},
		{name: "german umlauts", input: "Über die Brücke", want: "uber-die-brucke"},
		{name: "turkish letters", input: "Güzel Şehir İstanbul", want: "guzel-sehir-istanbul"},
		{name: "spanish tilde", input: "Año Nuevo en España", want: "ano-nuevo-en-espana"},
		{name: "emoji stripped", input: "Hello 🌍 World", want: "hello-world"},
		{name: "chinese characters stripped", input: "Hello 世界", want: "hello"},

		// --- Whitespace handling ---
		{name: "leading and trailing spaces", input: "  hello world  ", want: "hello-world"},
		{name: "multiple consecutive spaces collapsed", input: "hello    world", want: "hello-world"},
		{name: "tab becomes hyphen", input: "hello\tworld", want: "hello-world"},
		{name: "newline becomes hyphen", input: "first line\nsecond line", want: "first-line-second-line"},

		// --- Hyphen handling ---
		{name: "leading hyphens", input: "---hello world", want: "hello-world"},
		{name: "multiple hyphens between words", input: "hello---world", want: "hello-world"},
		{name: "hyphens and spaces mixed", input: "  --hello -- world--  ", want: "hello-world"},
		{name: "date-like string", input: "2026-02-25", want: "2026-02-25"},

		// --- Degenerate input ---
		{name: "empty string", input: "", want: ""},
		{name: "only spaces", input: "     ", want: ""},
		{name: "only special characters", input: "!@#$%^&*()", want: ""},
		{name: "only non-latin", input: "日本語", want: ""},
		{name: "single character", input: "A", want: "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(tt.input)
			if got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestGenerate_Idempotent verifies that a valid slug maps to itself.
func TestGenerate_Idempotent(t *testing.T) {
	for _, s := range []string{"hello-world", "censored-title", "my-flow-4821", "a", "123"} {
		t.Run(s, func(t *testing.T) {
			if got := Generate(s); got != s {
				t.Errorf("Generate(%q) = %q, want idempotent result", s, got)
			}
		})
	}
}

func TestCandidate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "Hello World", want: "hello-world"},
		{input: "", want: Fallback},
		{input: "!!!", want: Fallback},
		{input: "🔥🔥", want: Fallback},
	}
	for _, tt := range tests {
		if got := Candidate(tt.input); got != tt.want {
			t.Errorf("Candidate(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
