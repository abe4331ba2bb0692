package chat

import "strings"

// IntroReply is the canned assistant answer.
const IntroReply = "I'm your BioEngine assistant. I can help you with biological concepts, molecular structures, research papers, and much more. What would you like to explore?"

// Responder produces the assistant text for a user message.
type Responder interface {
	Reply(prompt string) string
	Name() string
}

// ScriptedResponder answers every prompt with the same text.
type ScriptedResponder struct {
	Text string
}

// NewScriptedResponder falls back to IntroReply when text is blank.
func NewScriptedResponder(text string) ScriptedResponder {
	if strings.TrimSpace(text) == "" {
		text = IntroReply
	}
	return ScriptedResponder{Text: text}
}

func (r ScriptedResponder) Reply(string) string {
	if r.Text == "" {
		return IntroReply
	}
	return r.Text
}

func (ScriptedResponder) Name() string { return "scripted" }
