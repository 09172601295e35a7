package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	mailtpl "github.com/oksasatya/healthfirst-provider/pkg/mailer/templates"
)

// ErrInvalidJob marks messages that can never be delivered and must not be requeued.
var ErrInvalidJob = errors.New("invalid email job")

// Processor renders queued email jobs and hands them to a Sender.
type Processor struct {
	Sender      Sender
	Logger      logrus.FieldLogger
	SendTimeout time.Duration
}

func NewProcessor(sender Sender, logger logrus.FieldLogger) *Processor {
	return &Processor{Sender: sender, Logger: logger, SendTimeout: 15 * time.Second}
}

// Render resolves the subject and bodies of job.
func Render(job *EmailJob) (subject, text, html string, err error) {
	if job.Template == "" {
		if job.Subject == "" || (job.Text == "" && job.HTML == "") {
			return "", "", "", fmt.Errorf("%w: either template or subject with text/html is required", ErrInvalidJob)
		}
		return job.Subject, job.Text, job.HTML, nil
	}
	EnsureRecipientAndEmail(job)
	subject, text, html, err = mailtpl.Render(strings.ToLower(job.Template), job.Data)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: render %s: %v", ErrInvalidJob, job.Template, err)
	}
	if job.Subject != "" {
		subject = job.Subject
	}
	if subject == "" {
		subject = FallbackSubject(job.Template)
	}
	return subject, text, html, nil
}

// Handle decodes, renders and sends one message body. The returned error wraps
// ErrInvalidJob when the message should be dropped rather than retried.
func (p *Processor) Handle(ctx context.Context, body []byte) error {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}
	if strings.TrimSpace(job.To) == "" {
		return fmt.Errorf("%w: missing recipient", ErrInvalidJob)
	}

	subject, text, html, err := Render(&job)
	if err != nil {
		return err
	}

	c, cancel := context.WithTimeout(ctx, p.SendTimeout)
	defer cancel()
	if err := p.Sender.Send(c, job.To, subject, text, html); err != nil {
		return fmt.Errorf("send to mailgun: %w", err)
	}
	if p.Logger != nil {
		p.Logger.WithFields(logrus.Fields{"template": job.Template}).Debug("email sent")
	}
	return nil
}
