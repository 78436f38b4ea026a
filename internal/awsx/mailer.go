package awsx

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// Mailer sends plain-text transactional email through SES.
type Mailer struct {
	SES    SESAPI
	Sender string
}

// NewMailer returns a Mailer sending from the given verified address.
func NewMailer(sesClient SESAPI, sender string) *Mailer {
	return &Mailer{
		SES:    sesClient,
		Sender: sender,
	}
}

// Send delivers one message to a single recipient.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: &m.Sender,
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: &subject},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: &body},
				},
			},
		},
	}

	if _, err := m.SES.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
