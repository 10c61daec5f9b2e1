package models

// ChannelSnapshot is the full persisted state of the public channel.
// The channel always exists; an absent document deserializes to the
// configured default snapshot.
type ChannelSnapshot struct {
	Messages []ChatMessage `json:"messages"`
	Users    []ChatUser    `json:"users"`
}
