package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/healthfirst-provider/config"
	mailtpl "github.com/oksasatya/healthfirst-provider/pkg/mailer/templates"
)

type sentMessage struct {
	to, subject, text, html string
}

type fakeSender struct {
	sent []sentMessage
	err  error
}

func (f *fakeSender) Send(_ context.Context, to, subject, text, html string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{to, subject, text, html})
	return nil
}

func registrationJob(t *testing.T) []byte {
	t.Helper()
	cfg := &config.Config{CompanyName: "Health First", AppName: "Provider Registration"}
	job := EmailJob{
		To:       "jane@example.com",
		Template: mailtpl.RegistrationReceived,
		Data: mailtpl.NewRegistrationReceivedData(cfg, "Jane Doe", "jane@example.com",
			mailtpl.WithSpecialization("Cardiology"),
			mailtpl.WithLicenseNumber("MD1"),
			mailtpl.WithVerificationStatus("pending"),
		),
	}
	b, err := json.Marshal(job)
	require.NoError(t, err)
	return b
}

func TestProcessor_RendersRegistrationTemplate(t *testing.T) {
	s := &fakeSender{}
	p := NewProcessor(s, nil)

	require.NoError(t, p.Handle(context.Background(), registrationJob(t)))

	require.Len(t, s.sent, 1)
	msg := s.sent[0]
	assert.Equal(t, "jane@example.com", msg.to)
	assert.Equal(t, "Health First: we received your provider registration", msg.subject)
	assert.Contains(t, msg.text, "Hello Jane Doe")
	assert.Contains(t, msg.text, "License number: MD1")
	assert.Contains(t, msg.html, "<td>Cardiology</td>")
}

func TestProcessor_RawMessage(t *testing.T) {
	s := &fakeSender{}
	p := NewProcessor(s, nil)

	body := []byte(`{"to":"a@b.com","subject":"Hi","text":"plain"}`)
	require.NoError(t, p.Handle(context.Background(), body))
	assert.Equal(t, "Hi", s.sent[0].subject)
}

func TestProcessor_InvalidJobsAreNotRetried(t *testing.T) {
	p := NewProcessor(&fakeSender{}, nil)

	cases := map[string]string{
		"bad json":         `{`,
		"no recipient":     `{"subject":"x","text":"y"}`,
		"no body":          `{"to":"a@b.com","subject":"x"}`,
		"unknown template": `{"to":"a@b.com","template":"nope"}`,
	}
	for name, body := range cases {
		err := p.Handle(context.Background(), []byte(body))
		assert.ErrorIs(t, err, ErrInvalidJob, name)
	}
}

func TestProcessor_SendFailureIsRetryable(t *testing.T) {
	p := NewProcessor(&fakeSender{err: errors.New("mailgun down")}, nil)

	err := p.Handle(context.Background(), registrationJob(t))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidJob)
}
