package entity

import "fmt"

// Channel is a delivery medium for a notification.
type Channel string

const (
	ChannelEmail   Channel = "email"
	ChannelBrowser Channel = "browser"
	ChannelSMS     Channel = "sms" // reserved, no sender exists
)

func ParseChannel(s string) (Channel, error) {
	switch ch := Channel(s); ch {
	case ChannelEmail, ChannelBrowser, ChannelSMS:
		return ch, nil
	}
	return "", fmt.Errorf("unknown notification channel %q", s)
}

func (c Channel) String() string {
	return string(c)
}
