package mailer

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridSender delivers messages through the SendGrid v3 API
type SendGridSender struct {
	send func(ctx context.Context, m *mail.SGMailV3) (int, string, error)
}

func NewSendGridSender(apiKey string) *SendGridSender {
	client := sendgrid.NewSendClient(apiKey)
	return &SendGridSender{
		send: func(ctx context.Context, m *mail.SGMailV3) (int, string, error) {
			res, err := client.SendWithContext(ctx, m)
			if err != nil {
				return 0, "", err
			}
			return res.StatusCode, res.Body, nil
		},
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg *Message) error {
	status, body, err := s.send(ctx, buildSendGridMessage(msg))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "sendgrid request failed")
	}

	if status < 200 || status >= 300 {
		return goerrors.New(fmt.Sprintf("sendgrid rejected email with status %d", status), goerrors.CategoryOperation).
			WithMetadata(map[string]any{
				"status": status,
				"body":   body,
			})
	}

	return nil
}

func buildSendGridMessage(msg *Message) *mail.SGMailV3 {
	from := mail.NewEmail(msg.FromName, msg.FromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)
	return mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)
}
