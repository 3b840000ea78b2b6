package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mailtpl "github.com/oksasatya/cep-users/pkg/mailer/templates"
)

// ErrPermanent marks jobs that will never succeed and should not be requeued
var ErrPermanent = errors.New("permanent email failure")

// Deliver renders job (when it names a template) and hands it to s.
// Errors wrapping ErrPermanent mean the job is malformed.
func Deliver(ctx context.Context, s Sender, job EmailJob) error {
	if strings.TrimSpace(job.To) == "" {
		return fmt.Errorf("%w: missing recipient", ErrPermanent)
	}

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		if job.Data == nil {
			job.Data = map[string]any{}
		}
		if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
			job.Data["Email"] = job.To
		}
		var err error
		subject, text, html, err = mailtpl.Render(strings.ToLower(job.Template), job.Data)
		if err != nil {
			return fmt.Errorf("%w: render %s: %v", ErrPermanent, job.Template, err)
		}
	}
	if subject == "" {
		subject = "Notification"
	}

	return s.Send(ctx, job.To, subject, text, html)
}
