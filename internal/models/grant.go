package models

type Grant struct {
	UserID   int64  `json:"user_id"`
	NodeID   string `json:"node_id"`
	CanRead  bool   `json:"can_read"`
	CanWrite bool   `json:"can_write"`
}
