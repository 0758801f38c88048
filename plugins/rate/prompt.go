package rate

// Judging modes. Anything unrecognized falls back to short.
const (
	ModeShort     = "short"
	ModeDetailed  = "detailed"
	ModeNarrative = "narrative"
)

const basePrompt = `You are an unsparing image critic. Look at the picture ` +
	`and hand down a verdict: "ship it" if it passes muster, "skip it" if it ` +
	`does not. Score it 1 to 10. Answer as JSON with exactly the fields ` +
	`"verdict", "rating" and "explanation", all strings.`

var modePrompts = map[string]string{
	ModeShort: basePrompt +
		` Keep the explanation to a single blunt sentence.`,
	ModeDetailed: basePrompt +
		` Explain your reasoning in a few sentences: composition, subject, ` +
		`lighting, and anything that swayed the score.`,
	ModeNarrative: basePrompt +
		` Deliver the explanation as a short dramatic story in which the ` +
		`picture is the protagonist and the rating is its fate.`,
}

// getPrompt returns the system instruction for a judging mode.
func getPrompt(mode string) string {
	if p, ok := modePrompts[mode]; ok {
		return p
	}
	return modePrompts[ModeShort]
}
