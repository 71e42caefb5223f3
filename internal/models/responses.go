package models

// Metadata describes a collection response.
type Metadata struct {
	Count int `json:"count"`
}

type UserCollection struct {
	Meta  Metadata `json:"meta"`
	Users []User   `json:"users"`
}

type ChatCollection struct {
	Meta  Metadata `json:"meta"`
	Chats []Chat   `json:"chats"`
}

type MessageCollection struct {
	Meta     Metadata  `json:"meta"`
	Messages []Message `json:"messages"`
}

// ChatMetadata counts a chat's messages and members.
type ChatMetadata struct {
	MessageCount int `json:"message_count"`
	UserCount    int `json:"user_count"`
}

// ChatResponse is the single-chat envelope; messages and users are only
// present when the caller asked for them via ?include=.
type ChatResponse struct {
	Meta     ChatMetadata `json:"meta"`
	Chat     Chat         `json:"chat"`
	Messages []Message    `json:"messages,omitempty"`
	Users    []User       `json:"users,omitempty"`
}
