package mailer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	t.Parallel()
	cfg := Config{FromEmail: "noreply@bookbarter.app", AppURL: "http://localhost:5173"}
	req, err := render(cfg, NotificationMail{
		To:            "ava@x.com",
		RecipientName: "Ava",
		SenderName:    "Ben",
		Kind:          "buy request",
		BookTitle:     "Dune",
		Message:       "Buy offer (₹400): <b>interested</b>",
	})
	require.NoError(t, err)
	require.Equal(t, "BookBarter <noreply@bookbarter.app>", req.From)
	require.Equal(t, []string{"ava@x.com"}, req.To)
	require.Equal(t, "New buy request from Ben", req.Subject)
	require.Contains(t, req.Html, "Hi Ava,")
	require.Contains(t, req.Html, "<i>Dune</i>")
	require.Contains(t, req.Html, "&lt;b&gt;interested&lt;/b&gt;")
	require.Contains(t, req.Html, `href="http://localhost:5173/notifications"`)
}

func TestConfig_Enabled(t *testing.T) {
	t.Parallel()
	require.False(t, Config{}.Enabled())
	require.True(t, Config{APIKey: "re_123"}.Enabled())
}
