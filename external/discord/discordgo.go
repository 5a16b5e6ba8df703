package discord

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	discordpkg "github.com/foxseedlab/tsuyaku/internal/discord"
)

const maxMessageRunes = 2000

// Client posts through the REST API only; no gateway connection is opened.
type Client struct {
	session *discordgo.Session
}

func NewClient(token string) (*Client, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	return &Client{session: s}, nil
}

// SendChannelMessage splits content on line boundaries so that each message
// stays within Discord's length limit.
func (c *Client) SendChannelMessage(channelID, content string) error {
	for _, part := range splitMessage(content, maxMessageRunes) {
		if _, err := c.session.ChannelMessageSend(channelID, part); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) Close() error {
	return nil
}

func splitMessage(content string, limit int) []string {
	var parts []string
	var cur []rune
	for _, line := range strings.SplitAfter(content, "\n") {
		r := []rune(line)
		if len(cur)+len(r) > limit && len(cur) > 0 {
			parts = append(parts, strings.TrimRight(string(cur), "\n"))
			cur = cur[:0]
		}
		for len(r) > limit {
			parts = append(parts, string(r[:limit]))
			r = r[limit:]
		}
		cur = append(cur, r...)
	}
	if s := strings.TrimRight(string(cur), "\n"); s != "" {
		parts = append(parts, s)
	}
	return parts
}

type noopClient struct{}

func (noopClient) SendChannelMessage(string, string) error { return nil }

func (noopClient) Close() error { return nil }

var _ discordpkg.Client = (*Client)(nil)
