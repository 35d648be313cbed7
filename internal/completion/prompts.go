package completion

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Tone is the register a drafted email is written in.
type Tone string

const (
	ToneProfessional Tone = "Professional"
	ToneCasual       Tone = "Casual"
	ToneDirect       Tone = "Direct"
	ToneEmpathetic   Tone = "Empathetic"
)

// Tones lists every supported tone in display order.
var Tones = []Tone{ToneProfessional, ToneCasual, ToneDirect, ToneEmpathetic}

// ParseTone matches s case-insensitively against the supported tones. An
// empty string selects ToneProfessional.
func ParseTone(s string) (Tone, error) {
	if strings.TrimSpace(s) == "" {
		return ToneProfessional, nil
	}
	for _, t := range Tones {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tone %q", s)
}

const summarizeInstruction = `You are an AI assistant helping users quickly understand emails.
Summarize the email clearly in bullet points.
Highlight any action items or deadlines.
If no action is required, explicitly state so.
Do not invent information.`

const draftInstruction = `You are an expert email communication assistant.
Your goal is to write concise, professional, and clear emails based on user intent.
Do not add new facts not present in the context.
End with a professional closing.`

const sentimentInstruction = `You are an AI that analyzes email sentiment.
Classify the sentiment of each email snippet provided.
Return 'Positive', 'Negative', or 'Neutral'.`

func summaryPrompt(content string) string {
	return "Please summarize the following email:\n\n" + content
}

func draftPrompt(req DraftRequest) string {
	tone := req.Tone
	if tone == "" {
		tone = ToneProfessional
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write a %s email.", strings.ToLower(string(tone)))
	if req.Recipient != "" {
		fmt.Fprintf(&b, " The email is addressed to: %s.", req.Recipient)
	}
	if req.Subject != "" {
		fmt.Fprintf(&b, " The subject line is: \"%s\".", req.Subject)
	}
	fmt.Fprintf(&b, "\nUser Intent: \"%s\"", req.Intent)

	if req.OriginalContent != "" {
		fmt.Fprintf(&b, "\n\nOriginal Email Context (for reply reference):\n\"%s\"", req.OriginalContent)
		b.WriteString("\n\nEnsure the reply addresses the points in the original email if relevant, but stay focused on the user intent.")
	}
	return b.String()
}

func sentimentPrompt(refs []SnippetRef) (string, error) {
	data, err := json.Marshal(refs)
	if err != nil {
		return "", err
	}
	return "Analyze the sentiment for the following emails:\n" + string(data), nil
}
