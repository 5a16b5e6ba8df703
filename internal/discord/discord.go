package discord

// Client posts messages to a chat channel.
type Client interface {
	SendChannelMessage(channelID, content string) error
	Close() error
}
