package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"practiceplanner/internal/entities"
	"practiceplanner/internal/templates"
)

type DigestRecipient struct {
	Email string
	Name  string
	Phone string
}

// Digest is a rendered summary of upcoming proposals.
type Digest struct {
	Subject string
	Text    string
	HTML    string
	SMS     string
	Count   int
}

// DigestService tells the user about upcoming proposed sessions by email
// and SMS. Either sender may be nil, which disables that channel.
type DigestService struct {
	proposals ProposalStore
	email     EmailSender
	sms       SMSSender
	to        DigestRecipient
	loc       *time.Location
	days      int
	log       zerolog.Logger

	Now func() time.Time
}

func NewDigestService(proposals ProposalStore, email EmailSender, sms SMSSender, to DigestRecipient, loc *time.Location, lookaheadDays int, logger zerolog.Logger) *DigestService {
	return &DigestService{
		proposals: proposals,
		email:     email,
		sms:       sms,
		to:        to,
		loc:       loc,
		days:      lookaheadDays,
		log:       logger.With().Str("service", "digest").Logger(),
		Now:       time.Now,
	}
}

// Compose renders the proposals starting between now and the end of the
// lookahead.
func (s *DigestService) Compose(ctx context.Context) (*Digest, error) {
	now := s.Now().In(s.loc)
	y, m, d := now.Date()
	to := time.Date(y, m, d, 0, 0, 0, 0, s.loc).AddDate(0, 0, s.days+1)

	sessions, err := s.proposals.List(ctx, now, to, false)
	if err != nil {
		return nil, fmt.Errorf("load proposals: %w", err)
	}

	data := entities.DigestEmailData{
		UserName:     s.to.Name,
		SessionCount: len(sessions),
		CurrentYear:  now.Year(),
	}
	var text strings.Builder
	fmt.Fprintf(&text, "Hello %s,\n\nYou have %d proposed practice sessions coming up:\n\n", orDefault(s.to.Name, "there"), len(sessions))
	for _, p := range sessions {
		row := entities.DigestSession{
			Day:   p.StartTime.In(s.loc).Format("Mon 02 Jan"),
			Start: p.StartTime.In(s.loc).Format("15:04"),
			End:   p.EndTime.In(s.loc).Format("15:04"),
		}
		if p.ProjectName != nil {
			row.Project = *p.ProjectName
		} else {
			data.Unassigned++
		}
		data.Sessions = append(data.Sessions, row)
		fmt.Fprintf(&text, "- %s %s-%s %s\n", row.Day, row.Start, row.End, orDefault(row.Project, "(open)"))
	}

	var html bytes.Buffer
	if err := templates.Digest.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("render digest: %w", err)
	}

	digest := &Digest{
		Subject: fmt.Sprintf("Your practice plan: %d sessions", len(sessions)),
		Text:    text.String(),
		HTML:    html.String(),
		Count:   len(sessions),
	}
	if len(data.Sessions) > 0 {
		first := data.Sessions[0]
		digest.SMS = fmt.Sprintf("Practice Planner: %d sessions proposed. Next: %s %s-%s %s.",
			len(sessions), first.Day, first.Start, first.End, orDefault(first.Project, "open"))
	}
	return digest, nil
}

// Send composes the digest and delivers it on every configured channel.
// Nothing is sent when there are no upcoming proposals.
func (s *DigestService) Send(ctx context.Context) error {
	digest, err := s.Compose(ctx)
	if err != nil {
		return err
	}
	if digest.Count == 0 {
		s.log.Info().Msg("no upcoming proposals, digest not sent")
		return nil
	}

	var errs []error
	if s.email != nil && s.to.Email != "" {
		if err := s.email.SendEmail(ctx, s.to.Email, s.to.Name, digest.Subject, digest.Text, digest.HTML); err != nil {
			errs = append(errs, err)
		}
	} else {
		s.log.Warn().Msg("email not configured, skipping digest email")
	}
	if s.sms != nil && s.to.Phone != "" {
		if err := s.sms.SendSMS(ctx, s.to.Phone, digest.SMS); err != nil {
			errs = append(errs, err)
		}
	} else {
		s.log.Warn().Msg("sms not configured, skipping digest sms")
	}
	return errors.Join(errs...)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
