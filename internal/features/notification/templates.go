package notification

import (
	"strings"
	"text/template"
)

// MessageData is what a message template can reference.
type MessageData struct {
	ClaimID    string
	PolicyID   string
	CustomerID string
	Amount     float64
	Status     string
}

var templates = map[string]*template.Template{}

func init() {
	for name, text := range map[string]string{
		"claimReceived":    "We received your claim {{.ClaimID}} for {{printf \"%.2f\" .Amount}}. It is now under review.",
		"claimUnderReview": "Your claim {{.ClaimID}} is being reviewed by an adjuster.",
		"claimApproved":    "Good news: your claim {{.ClaimID}} has been approved.",
		"claimDeclined":    "Your claim {{.ClaimID}} has been declined.",
		"claimEscalated":   "Your claim {{.ClaimID}} has been escalated to a senior adjuster.",
		"claimStatus":      "Your claim {{.ClaimID}} is now {{.Status}}.",
		"policyCreated":    "Policy {{.PolicyID}} was created. Please activate it to start coverage.",
		"policyStatus":     "Policy {{.PolicyID}} is now {{.Status}}.",
		"policyActivated":  "Policy {{.PolicyID}} is active. Your coverage has started.",
	} {
		templates[name] = template.Must(template.New(name).Parse(text))
	}
}

// KnownTemplate reports whether name is one of the built-in templates.
func KnownTemplate(name string) bool {
	_, ok := templates[name]
	return ok
}

// Render fills the named template. Unknown names fall back to a generic
// update line that still mentions the template name.
func Render(name string, data MessageData) string {
	t, ok := templates[name]
	if !ok {
		if data.ClaimID != "" {
			return "Update on claim " + data.ClaimID + ": " + name
		}
		return "Update: " + name
	}

	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "Update: " + name
	}
	return b.String()
}
