package mailer

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"unicornfarm/internal/config"
	"unicornfarm/internal/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

func testUnicorn() *models.Unicorn {
	first := time.Date(2024, 5, 17, 9, 5, 0, 0, time.UTC)
	second := time.Date(2024, 6, 1, 18, 45, 0, 0, time.UTC)
	return &models.Unicorn{
		ID:   1,
		Name: "Sparkle",
		Messages: []models.Message{
			{ID: 1, Author: "Ada", Message: "Sparkle is shiny", CreatedAt: first},
			{ID: 2, Author: "Grace", Message: "Carrots & <hay>", CreatedAt: second},
		},
	}
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []*mail.Msg
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg *mail.Msg) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return s.err
}

type blockingSender struct{}

func (blockingSender) Send(ctx context.Context, _ *mail.Msg) error {
	<-ctx.Done()
	time.Sleep(50 * time.Millisecond)
	return nil
}

func TestRenderDigest_Text(t *testing.T) {
	t.Parallel()

	digest, err := RenderDigest(testUnicorn())
	require.NoError(t, err)

	want := "Listing of all posts related to Sparkle:\n\n" +
		"Author: Ada\nPost: Sparkle is shiny\nDate: 2024-05-17\nTime: 09:05 \n\n" +
		"Author: Grace\nPost: Carrots & <hay>\nDate: 2024-06-01\nTime: 18:45 \n\n"
	if diff := cmp.Diff(want, digest.Text); diff != "" {
		t.Errorf("text digest mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, DigestSubject, digest.Subject)
	assert.Equal(t, 2, digest.Posts)
}

func TestRenderDigest_HTMLEscapesPosts(t *testing.T) {
	t.Parallel()

	digest, err := RenderDigest(testUnicorn())
	require.NoError(t, err)

	assert.Contains(t, digest.HTML, "<td>Ada</td><td>Sparkle is shiny</td><td>2024-05-17</td><td>09:05</td>")
	assert.Contains(t, digest.HTML, "Carrots &amp; &lt;hay&gt;")
	assert.NotContains(t, digest.HTML, "<hay>")
}

func TestRenderDigest_NoPosts(t *testing.T) {
	t.Parallel()

	digest, err := RenderDigest(&models.Unicorn{Name: "Moonbeam"})
	require.NoError(t, err)
	assert.Equal(t, "Listing of all posts related to Moonbeam:\n\n", digest.Text)
	assert.Contains(t, digest.HTML, "Nobody has posted about Moonbeam yet.")
	assert.Zero(t, digest.Posts)
}

func TestEntries(t *testing.T) {
	t.Parallel()

	want := []DigestEntry{
		{Author: "Ada", Body: "Sparkle is shiny", Date: "2024-05-17", Time: "09:05"},
		{Author: "Grace", Body: "Carrots & <hay>", Date: "2024-06-01", Time: "18:45"},
	}
	if diff := cmp.Diff(want, Entries(testUnicorn())); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestMailer_SendPurchaseDigest(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	m := New(sender, "farm@unicorns.local", time.Second)

	require.NoError(t, m.SendPurchaseDigest(context.Background(), "buyer@example.com", testUnicorn()))
	require.Len(t, sender.msgs, 1)

	msg := sender.msgs[0]
	assert.Equal(t, []string{"<buyer@example.com>"}, msg.GetToString())
	assert.Equal(t, []string{DigestSubject}, msg.GetGenHeader(mail.HeaderSubject))

	var raw bytes.Buffer
	_, err := msg.WriteTo(&raw)
	require.NoError(t, err)
	assert.Contains(t, raw.String(), "farm@unicorns.local")
	assert.Contains(t, raw.String(), "text/plain")
	assert.Contains(t, raw.String(), "text/html")
}

func TestMailer_SendPurchaseDigest_Failures(t *testing.T) {
	t.Parallel()

	t.Run("sender error", func(t *testing.T) {
		t.Parallel()
		relayDown := errors.New("connection refused")
		m := New(&recordingSender{err: relayDown}, "farm@unicorns.local", time.Second)

		err := m.SendPurchaseDigest(context.Background(), "buyer@example.com", testUnicorn())
		assert.ErrorIs(t, err, relayDown)
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		m := New(blockingSender{}, "farm@unicorns.local", 20*time.Millisecond)

		start := time.Now()
		err := m.SendPurchaseDigest(context.Background(), "buyer@example.com", testUnicorn())
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("bad sender address", func(t *testing.T) {
		t.Parallel()
		sender := &recordingSender{}
		m := New(sender, "not an address", time.Second)

		err := m.SendPurchaseDigest(context.Background(), "buyer@example.com", testUnicorn())
		assert.Error(t, err)
		assert.Empty(t, sender.msgs)
	})
}

func TestNewSender(t *testing.T) {
	t.Parallel()

	sender, err := NewSender(&config.Config{MailTimeout: time.Second})
	require.NoError(t, err)
	assert.IsType(t, LogSender{}, sender)

	sender, err = NewSender(&config.Config{SMTPHost: "localhost", SMTPPort: 1025, SMTPTLS: "none", MailTimeout: time.Second})
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, sender)
}

func TestTLSPolicy(t *testing.T) {
	t.Parallel()

	assert.Equal(t, mail.TLSMandatory, tlsPolicy("mandatory"))
	assert.Equal(t, mail.TLSOpportunistic, tlsPolicy("Opportunistic"))
	assert.Equal(t, mail.NoTLS, tlsPolicy("none"))
	assert.Equal(t, mail.NoTLS, tlsPolicy(""))
}
