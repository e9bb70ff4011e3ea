package gemini

import (
	"strings"

	"github.com/riskibarqy/creator-league/internal/usecase"
	"github.com/valyala/bytebufferpool"
)

// buildPrompt frames the entry for a teenage audience: short, encouraging,
// one concrete editing tip, no markdown.
func buildPrompt(req usecase.CoachRequest) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	line := func(parts ...string) {
		for _, p := range parts {
			_, _ = buf.WriteString(p)
		}
		_ = buf.WriteByte('\n')
	}

	line(`You are a professional video editing coach for the "Creator League", a competition for teenagers.`)
	line()
	line(`Current Challenge: "`, clean(req.ChallengeTitle), `"`)
	line(`Challenge Description: "`, clean(req.ChallengeDescription), `"`)
	line()
	line(`The student has submitted a video with this description: "`, clean(req.VideoDescription), `"`)
	line()
	line("Provide a short, encouraging, but constructive critique (max 3 sentences).")
	line("Focus on how well it fits the theme and suggest one specific editing tip (e.g., pacing, color grading, sound design).")
	line("Do not use markdown. Keep it conversational and hype them up.")

	return buf.String()
}

func clean(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "n/a"
	}
	return strings.ReplaceAll(value, `"`, `'`)
}
