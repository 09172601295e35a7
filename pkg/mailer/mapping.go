package mailer

import (
	"fmt"
	"strings"

	mailtpl "github.com/oksasatya/healthfirst-provider/pkg/mailer/templates"
)

// FallbackSubject is used when a template renders an empty subject.
func FallbackSubject(template string) string {
	switch strings.ToLower(template) {
	case mailtpl.RegistrationReceived:
		return "We received your registration"
	default:
		return "Notification"
	}
}

func EnsureRecipientAndEmail(job *EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}
	if v, ok := job.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["RecipientEmail"] = job.To
	}
}
