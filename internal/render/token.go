package render

import (
	"encoding/base64"
	"fmt"
)

// Unsubscribe tokens are a reversible, unsigned encoding of the subscriber
// id. Changing the format would break links already sitting in subscriber
// inboxes.

// GenerateUnsubscribeToken encodes a subscriber id into an unsubscribe token.
func GenerateUnsubscribeToken(subscriberID string) string {
	return base64.URLEncoding.EncodeToString([]byte(subscriberID))
}

// ParseUnsubscribeToken decodes an unsubscribe token back into a subscriber id.
func ParseUnsubscribeToken(token string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("invalid unsubscribe token: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("invalid unsubscribe token: empty")
	}
	return string(raw), nil
}
