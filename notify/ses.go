package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/skillsenselab/auth-service/logger"
)

// sesAPI is the subset of the SES client used by the notifier.
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SES delivers emails through Amazon SES.
type SES struct {
	client sesAPI
	cfg    Config
	log    *logger.Logger
}

// NewSES creates an SES-backed notifier.
func NewSES(client sesAPI, cfg Config, log *logger.Logger) *SES {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &SES{
		client: client,
		cfg:    cfg,
		log:    log.WithComponent("notify"),
	}
}

func (s *SES) SendPasswordReset(ctx context.Context, email, name, token string) error {
	link := s.cfg.resetLink(token)
	return s.send(ctx, email, resetSubject, resetHTMLBody(name, link), resetTextBody(name, link))
}

func (s *SES) SendWelcome(ctx context.Context, email, name string) error {
	return s.send(ctx, email, welcomeSubject, welcomeHTMLBody(name), welcomeTextBody(name))
}

func (s *SES) send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	out, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.cfg.From),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody)},
					Text: &types.Content{Data: aws.String(textBody)},
				},
			},
		},
	})
	if err != nil {
		s.log.WithError(err).Error("email send failed", logger.Fields(
			logger.FieldEmail, to,
		))
		return fmt.Errorf("notify: send email: %w", err)
	}

	s.log.Info("email sent", logger.Fields(
		logger.FieldEmail, to,
		"message_id", aws.ToString(out.MessageId),
	))
	return nil
}
