package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type Post struct {
	ID           uuid.UUID `bson:"_id" json:"id"`
	Author       string    `bson:"author" json:"author"`
	Title        string    `bson:"title" json:"title"`
	Content      string    `bson:"content" json:"content"`
	CommentCount int       `bson:"comment_count" json:"comment_count"`
	Published    time.Time `bson:"published" json:"published"`
}

type Comment struct {
	ID        uuid.UUID  `bson:"_id" json:"id"`
	PostID    uuid.UUID  `bson:"post_id" json:"post_id"`
	ParentID  uuid.UUID  `bson:"parent_id,omitempty" json:"parent_id,omitempty"`
	Author    string     `bson:"author" json:"author"`
	Text      string     `bson:"text" json:"text"`
	Published time.Time  `bson:"published" json:"published"`
	Replies   []*Comment `bson:"-" json:"replies,omitempty"`
}
