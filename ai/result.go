package ai

import "Relay/core"

// Result is what an adapter hands back to the pipeline.
// Err is kept for logs only; Text or ImageURL is always usable.
type Result struct {
	Text     string
	ImageURL string
	Outcome  core.Outcome
	Err      error
}

func textResult(text string) Result {
	return Result{Text: text, Outcome: core.OutcomeOK}
}

func fallbackResult(text string, err error) Result {
	return Result{Text: text, Outcome: core.OutcomeFallback, Err: err}
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
