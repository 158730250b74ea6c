package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"practiceplanner/internal/db"
)

type sentEmail struct {
	to, name, subject, text, html string
}

type fakeEmail struct {
	sent []sentEmail
	err  error
}

func (f *fakeEmail) SendEmail(_ context.Context, to, name, subject, text, html string) error {
	f.sent = append(f.sent, sentEmail{to, name, subject, text, html})
	return f.err
}

type fakeSMS struct {
	to, body []string
}

func (f *fakeSMS) SendSMS(_ context.Context, to, body string) error {
	f.to = append(f.to, to)
	f.body = append(f.body, body)
	return nil
}

func upcoming() *fakeProposals {
	name := "Piano"
	return &fakeProposals{sessions: []db.ProposedSession{
		{ID: uuid.New(), ProjectID: intPtr(1), ProjectName: &name,
			StartTime: time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC), EndTime: time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)},
		{ID: uuid.New(),
			StartTime: time.Date(2026, 3, 12, 18, 0, 0, 0, time.UTC), EndTime: time.Date(2026, 3, 12, 19, 0, 0, 0, time.UTC)},
		{ID: uuid.New(),
			StartTime: time.Date(2026, 4, 30, 9, 0, 0, 0, time.UTC), EndTime: time.Date(2026, 4, 30, 10, 0, 0, 0, time.UTC)},
	}}
}

func newDigestService(p ProposalStore, email EmailSender, sms SMSSender) *DigestService {
	s := NewDigestService(p, email, sms, DigestRecipient{Email: "me@example.com", Name: "Ana", Phone: "+15550100"}, time.UTC, 7, zerolog.Nop())
	s.Now = clock(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	return s
}

func TestComposeDigest(t *testing.T) {
	d, err := newDigestService(upcoming(), nil, nil).Compose(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, d.Count)
	assert.Equal(t, "Your practice plan: 2 sessions", d.Subject)
	assert.Contains(t, d.Text, "Hello Ana")
	assert.Contains(t, d.Text, "- Wed 11 Mar 09:00-10:00 Piano")
	assert.Contains(t, d.Text, "- Thu 12 Mar 18:00-19:00 (open)")
	assert.Contains(t, d.HTML, "<td style=\"padding: 6px;\">Piano</td>")
	assert.Contains(t, d.HTML, "1 of them are not earmarked")
	assert.Equal(t, "Practice Planner: 2 sessions proposed. Next: Wed 11 Mar 09:00-10:00 Piano.", d.SMS)
}

func TestSendDigestUsesBothChannels(t *testing.T) {
	email, sms := &fakeEmail{}, &fakeSMS{}
	require.NoError(t, newDigestService(upcoming(), email, sms).Send(context.Background()))

	require.Len(t, email.sent, 1)
	assert.Equal(t, "me@example.com", email.sent[0].to)
	assert.Equal(t, "Ana", email.sent[0].name)
	assert.NotEmpty(t, email.sent[0].html)
	assert.Equal(t, []string{"+15550100"}, sms.to)
}

func TestSendDigestReportsChannelErrors(t *testing.T) {
	email, sms := &fakeEmail{err: errors.New("rejected")}, &fakeSMS{}
	err := newDigestService(upcoming(), email, sms).Send(context.Background())
	assert.EqualError(t, err, "rejected")
	assert.Len(t, sms.to, 1)
}

func TestSendDigestSkipsWhenEmpty(t *testing.T) {
	email := &fakeEmail{}
	require.NoError(t, newDigestService(&fakeProposals{}, email, nil).Send(context.Background()))
	assert.Empty(t, email.sent)
}

func TestSendDigestWithoutSenders(t *testing.T) {
	assert.NoError(t, newDigestService(upcoming(), nil, nil).Send(context.Background()))
}
