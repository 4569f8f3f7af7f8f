package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusClosed     = "closed"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ImageRef points at an uploaded image in the blob store.
type ImageRef struct {
	URL    string `json:"url"`
	BlobID string `json:"blob_id"`
}

type Comment struct {
	ID        uuid.UUID   `json:"id"`
	PostID    uuid.UUID   `json:"post_id"`
	UserID    uuid.UUID   `json:"user_id"`
	Content   string      `json:"content"`
	Likes     []uuid.UUID `json:"likes"`
	CreatedAt time.Time   `json:"created_at"`
	// Joined fields
	AuthorFirstName string `json:"author_first_name,omitempty"`
	AuthorLastName  string `json:"author_last_name,omitempty"`
}

type Post struct {
	ID             uuid.UUID   `json:"id"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Category       string      `json:"category"`
	Location       string      `json:"location"`
	AuthorID       uuid.UUID   `json:"author_id"`
	Images         []ImageRef  `json:"images"`
	Status         string      `json:"status"`
	Priority       string      `json:"priority"`
	Tags           []string    `json:"tags"`
	LocalAuthority string      `json:"local_authority,omitempty"`
	IsPublic       bool        `json:"is_public"`
	Likes          []uuid.UUID `json:"likes"`
	Upvotes        []uuid.UUID `json:"upvotes"`
	Comments       []Comment   `json:"comments"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	// Joined fields
	AuthorFirstName string `json:"author_first_name,omitempty"`
	AuthorLastName  string `json:"author_last_name,omitempty"`
}
