package api

import (
	"time"

	"github.com/gofrs/uuid"

	"community/pkg/models"
)

type LogEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	IP         string    `json:"ip"`
	StatusCode int       `json:"status_code"`
	RequestID  string    `json:"request_id"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Duration   float64   `json:"duration_sec"`
	BytesOut   int       `json:"bytes_out"`
	Service    string    `json:"service"`
}

type Pagination struct {
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
	Limit       int `json:"limit"`
}

type PostsResponse struct {
	Posts      []models.Post `json:"posts"`
	Pagination Pagination    `json:"pagination"`
}

type PostRequest struct {
	Author  string `json:"author"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type PostDetailed struct {
	models.Post
	Comments []*models.Comment `json:"comments"`
}

type CommentRequest struct {
	PostID   uuid.UUID `json:"post_id"`
	ParentID uuid.UUID `json:"parent_id,omitempty"`
	Author   string    `json:"author"`
	Text     string    `json:"text"`
}

type FilterRequest struct {
	Text string `json:"text"`
}

type FilterResponse struct {
	Text     string `json:"text"`
	Filtered bool   `json:"filtered"`
	Replaced int    `json:"replaced"`
}

type FilterStatus struct {
	Status string `json:"status"`
	Words  int    `json:"words"`
	Error  string `json:"error,omitempty"`
}
