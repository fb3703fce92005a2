package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mrz1836/reviewapp/internal/domain"
	"github.com/mrz1836/reviewapp/internal/errors"
	"github.com/mrz1836/reviewapp/internal/transport"
)

// slackMessage is the incoming-webhook payload.
type slackMessage struct {
	Text   string `json:"text"`
	Mrkdwn bool   `json:"mrkdwn"`
}

// Slack posts announcements to an incoming webhook.
type Slack struct {
	http    *transport.Client
	hookURL string
}

// NewSlack creates a Slack announcer for the webhook at baseURL + path.
func NewSlack(baseURL, path string, client *transport.Client) *Slack {
	if client == nil {
		client = transport.New()
	}
	hook := strings.TrimRight(baseURL, "/")
	if path != "" && !strings.HasPrefix(path, "/") {
		hook += "/"
	}
	return &Slack{http: client, hookURL: hook + path}
}

// Name implements Announcer.
func (s *Slack) Name() string { return "slack" }

// SlackText renders the message body: the image in italics, then the URL.
func SlackText(a domain.Announcement) string {
	return "_" + a.Image + "_ deployed to review app\n" + a.URL
}

func (s *Slack) request(a domain.Announcement) transport.Request {
	return transport.Request{
		Method: http.MethodPost,
		URL:    s.hookURL,
		Body:   slackMessage{Text: SlackText(a), Mrkdwn: true},
	}
}

// Announce implements Announcer.
func (s *Slack) Announce(ctx context.Context, a domain.Announcement) error {
	if _, err := s.http.Do(ctx, s.request(a), nil); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrNotifyFailed, err)
	}
	return nil
}

// AnnounceAsync implements AsyncAnnouncer.
func (s *Slack) AnnounceAsync(ctx context.Context, a domain.Announcement, done func(error)) *transport.Future {
	return s.http.Go(ctx, s.request(a), nil, func(_ *transport.Response, err error) {
		if done == nil {
			return
		}
		if err != nil {
			err = fmt.Errorf("%w: %w", errors.ErrNotifyFailed, err)
		}
		done(err)
	})
}

var _ AsyncAnnouncer = (*Slack)(nil)
