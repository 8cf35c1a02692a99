package evaluation

import "strings"

const promptTemplate = `Evaluate the following interview answer and provide:
1. A score from 1 to 10 (where 10 is excellent)
2. Two lines of constructive feedback

Answer to evaluate:
"%TRANSCRIPT%"

Please respond in this exact format:
SCORE: [number from 1-10]
FEEDBACK: [two lines of feedback, each on a new line]`

// BuildPrompt renders the scoring prompt. The question, when known, is placed
// ahead of the answer so the model can judge relevance.
func BuildPrompt(transcript, questionText string) string {
	prompt := strings.Replace(promptTemplate, "%TRANSCRIPT%", transcript, 1)
	if q := strings.TrimSpace(questionText); q != "" {
		prompt = "Question:\n\"" + q + "\"\n\n" + prompt
	}
	return prompt
}
