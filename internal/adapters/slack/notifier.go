// Package slack posts run summaries to a Slack channel.
package slack

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

type Notifier struct {
	api     *slack.Client
	channel string
}

func New(token, channel string, opts ...slack.Option) (*Notifier, error) {
	if token == "" || channel == "" {
		return nil, fmt.Errorf("slack token and channel are required")
	}
	return &Notifier{api: slack.New(token, opts...), channel: channel}, nil
}

func (n *Notifier) Notify(ctx context.Context, text string) error {
	if _, _, err := n.api.PostMessageContext(ctx, n.channel, slack.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	return nil
}
