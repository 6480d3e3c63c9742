package telegram

import (
	"net/http"
	"time"

	"github.com/m3rciful/lunabot/core/telegram/netutil"
)

// BuildHTTPClient returns the Telegram API client. Long polling keeps a request open for
// defaultLongPollSeconds, so the overall timeout leaves room for it.
func BuildHTTPClient() *http.Client {
	return netutil.NewClient(netutil.ClientOptions{
		Name:           "telegram",
		Timeout:        time.Duration(defaultLongPollSeconds)*time.Second + 20*time.Second,
		ResponseHeader: time.Duration(defaultLongPollSeconds)*time.Second + 5*time.Second,
		Retries:        3,
	})
}
