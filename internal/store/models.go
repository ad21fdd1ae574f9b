package store

import "time"

type StatusCheck struct {
	ID         string    `json:"id"`
	ClientName string    `json:"client_name"`
	Timestamp  time.Time `json:"timestamp"`
}

type UserInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ChatTurn is an inbound chat message as received from the user.
type ChatTurn struct {
	ID        string    `json:"id"`
	UserInfo  UserInfo  `json:"user_info"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// AiReply is the answer produced for a ChatTurn. UserID holds the ChatTurn id;
// the reference is not enforced by the schema.
type AiReply struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Response        string    `json:"response"`
	Recommendations []string  `json:"recommendations"`
	Timestamp       time.Time `json:"timestamp"`
}
