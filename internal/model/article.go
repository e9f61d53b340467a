package model

import (
	"time"

	"github.com/google/uuid"
)

type ArticleStatus string

const (
	StatusPending  ArticleStatus = "pending"
	StatusApproved ArticleStatus = "approved"
	StatusRejected ArticleStatus = "rejected"
)

// Terminal reports whether no further editorial transition is defined from s.
func (s ArticleStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Article is a piece of editorial content moving from submission to visibility.
// An empty PublisherID marks independent content.
type Article struct {
	ID          uuid.UUID     `json:"id"`
	Title       string        `json:"title"`
	Excerpt     string        `json:"excerpt"`
	Content     string        `json:"content,omitempty"`
	AuthorID    string        `json:"author_id"`
	PublisherID string        `json:"publisher_id,omitempty"`
	Status      ArticleStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	DecidedAt   *time.Time    `json:"decided_at,omitempty"`
	DecidedBy   string        `json:"decided_by,omitempty"`
}

// NewArticle creates a pending Article authored by authorID.
func NewArticle(authorID, publisherID, title, content string) Article {
	now := time.Now().UTC()
	return Article{
		ID:          uuid.New(),
		Title:       title,
		Content:     content,
		AuthorID:    authorID,
		PublisherID: publisherID,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Independent reports whether the article has no publisher.
func (a *Article) Independent() bool {
	return a.PublisherID == ""
}
