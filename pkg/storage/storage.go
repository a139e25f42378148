package storage

import (
	"context"
	"errors"
	"sort"

	"github.com/gofrs/uuid"

	"community/pkg/models"
)

var (
	ErrConnectDB       = errors.New("unable to establish DB connection")
	ErrDBNotResponding = errors.New("DB not responding")

	ErrPostNotFound          = errors.New("post not found")
	ErrPostIDNotProvided     = errors.New("postID not provided")
	ErrParentCommentNotFound = errors.New("parent comment not found")
)

// Storage persists posts and their comments. Texts are stored as given,
// filtering is the caller's job.
type Storage interface {
	AddPost(ctx context.Context, post models.Post) (models.Post, error)
	Post(ctx context.Context, id uuid.UUID) (models.Post, error)
	LatestPosts(ctx context.Context, page, limit int) (posts []models.Post, numPages int, err error)

	AddComment(ctx context.Context, comment models.Comment) (models.Comment, error)
	Comments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error)
}

// CommentTree links replies to their parents and returns the root comments.
// Comments are ordered by publication time at every level. Replies whose
// parent is missing from comments are dropped.
func CommentTree(comments []models.Comment) []*models.Comment {
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].Published.Before(comments[j].Published)
	})

	commentMap := make(map[uuid.UUID]*models.Comment, len(comments))
	for i := range comments {
		comments[i].Replies = nil
		commentMap[comments[i].ID] = &comments[i]
	}

	var roots []*models.Comment
	for i := range comments {
		c := &comments[i]
		if c.ParentID == uuid.Nil {
			roots = append(roots, c)
		} else if parent, ok := commentMap[c.ParentID]; ok {
			parent.Replies = append(parent.Replies, c)
		}
	}

	return roots
}

// NumPages returns how many pages of size limit hold total items.
func NumPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
