package models

import "time"

const (
	NodeTypeFile   = "file"
	NodeTypeFolder = "folder"
)

type Node struct {
	ID         string    `json:"id"`
	OwnerID    int64     `json:"owner_id"`
	ParentID   *string   `json:"parent_id"`
	Name       string    `json:"name"`
	NodeType   string    `json:"node_type"`
	SizeBytes  *int64    `json:"size_bytes"`
	MimeType   *string   `json:"mime_type"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

func (n *Node) IsFolder() bool {
	return n.NodeType == NodeTypeFolder
}
