package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type EmailSender interface {
	SendEmail(ctx context.Context, toEmail, toName, subject, plainText, html string) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

type SendGridSender struct {
	client *sendgrid.Client
	from   *mail.Email
	log    zerolog.Logger
}

func NewSendGridSender(apiKey, fromEmail, fromName string, logger zerolog.Logger) *SendGridSender {
	return &SendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromEmail),
		log:    logger.With().Str("sender", "sendgrid").Logger(),
	}
}

func (s *SendGridSender) SendEmail(ctx context.Context, toEmail, toName, subject, plainText, html string) error {
	message := mail.NewSingleEmail(s.from, subject, mail.NewEmail(toName, toEmail), plainText, html)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send to %s: %w", toEmail, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	s.log.Info().Str("to", toEmail).Str("subject", subject).Int("status", resp.StatusCode).Msg("email sent")
	return nil
}

type TwilioSender struct {
	client *twilio.RestClient
	from   string
	log    zerolog.Logger
}

func NewTwilioSender(accountSID, authToken, fromNumber string, logger zerolog.Logger) *TwilioSender {
	return &TwilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username:   accountSID,
			Password:   authToken,
			AccountSid: accountSID,
		}),
		from: fromNumber,
		log:  logger.With().Str("sender", "twilio").Logger(),
	}
}

// SendSMS sends body to an E.164 number. The Twilio client takes no
// context, so ctx is only checked before the call.
func (s *TwilioSender) SendSMS(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !strings.HasPrefix(to, "+") {
		s.log.Warn().Str("to", to).Msg("destination is not in E.164 format")
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send to %s: %w", to, err)
	}
	ev := s.log.Info().Str("to", to)
	if resp != nil && resp.Sid != nil {
		ev = ev.Str("sid", *resp.Sid)
	}
	ev.Msg("sms sent")
	return nil
}
