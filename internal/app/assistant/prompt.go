package assistant

import (
	"fmt"
	"strings"
)

const persona = `You are Connectify AI, an assistant listening to a live video meeting.
Answer the participant who addressed you in a few short sentences of plain text, no markdown.
Use the meeting transcript below as context. If it does not contain what you need, say so instead of guessing.`

const summaryInstructions = `Summarize the meeting transcript below as a short bulleted list.
Cover the main topics, decisions and action items. Use "- " for each bullet and keep every bullet to one line.`

// BuildPrompt frames a wake-word request with the recent transcript.
func BuildPrompt(transcriptTail, speaker, utterance string) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\nMeeting transcript (most recent part):\n")
	if strings.TrimSpace(transcriptTail) == "" {
		b.WriteString("(empty)\n")
	} else {
		b.WriteString(transcriptTail)
		if !strings.HasSuffix(transcriptTail, "\n") {
			b.WriteString("\n")
		}
	}
	fmt.Fprintf(&b, "\n%s just said: %q\n", speaker, utterance)
	return b.String()
}

// BuildSummaryPrompt asks for a summary of the whole transcript.
func BuildSummaryPrompt(transcript string) string {
	return summaryInstructions + "\n\nTranscript:\n" + transcript
}
