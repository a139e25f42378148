package memdb

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/uuid"

	"community/pkg/models"
	"community/pkg/storage"
)

// Store keeps posts and comments in memory. It is meant for development mode
// and tests.
type Store struct {
	mu       sync.Mutex
	posts    map[uuid.UUID]models.Post
	comments map[uuid.UUID]models.Comment
}

func New() *Store {
	db := Store{
		posts:    make(map[uuid.UUID]models.Post),
		comments: make(map[uuid.UUID]models.Comment),
	}

	return &db
}

func (db *Store) AddPost(ctx context.Context, post models.Post) (models.Post, error) {
	if post.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return models.Post{}, err
		}
		post.ID = id
	}
	if post.Published.IsZero() {
		post.Published = time.Now().UTC()
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	db.posts[post.ID] = post
	return post, nil
}

func (db *Store) Post(ctx context.Context, id uuid.UUID) (models.Post, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	post, ok := db.posts[id]
	if !ok {
		return models.Post{}, storage.ErrPostNotFound
	}

	return post, nil
}

func (db *Store) LatestPosts(ctx context.Context, page, limit int) (posts []models.Post, numPages int, err error) {
	if limit <= 0 {
		return []models.Post{}, 0, nil
	}

	db.mu.Lock()
	allPosts := make([]models.Post, 0, len(db.posts))
	for _, v := range db.posts {
		allPosts = append(allPosts, v)
	}
	db.mu.Unlock()

	sort.Slice(allPosts, func(i, j int) bool {
		return allPosts[i].Published.After(allPosts[j].Published)
	})

	totalPosts := len(allPosts)
	numPages = storage.NumPages(totalPosts, limit)

	pageIndex := page - 1
	if pageIndex < 0 {
		pageIndex = 0
	}

	start := pageIndex * limit
	if start >= totalPosts {
		return []models.Post{}, numPages, nil
	}

	end := start + limit
	if end > totalPosts {
		end = totalPosts
	}

	return allPosts[start:end], numPages, nil
}

// AddComment stores comment and increments the comment count of its post.
func (db *Store) AddComment(ctx context.Context, comment models.Comment) (models.Comment, error) {
	if comment.PostID == uuid.Nil {
		return models.Comment{}, storage.ErrPostIDNotProvided
	}
	if comment.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return models.Comment{}, err
		}
		comment.ID = id
	}
	if comment.Published.IsZero() {
		comment.Published = time.Now().UTC()
	}
	comment.Replies = nil

	db.mu.Lock()
	defer db.mu.Unlock()

	post, ok := db.posts[comment.PostID]
	if !ok {
		return models.Comment{}, storage.ErrPostNotFound
	}
	if comment.ParentID != uuid.Nil {
		parent, ok := db.comments[comment.ParentID]
		if !ok || parent.PostID != comment.PostID {
			return models.Comment{}, storage.ErrParentCommentNotFound
		}
	}

	db.comments[comment.ID] = comment
	post.CommentCount++
	db.posts[post.ID] = post

	return comment, nil
}

func (db *Store) Comments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	if postID == uuid.Nil {
		return nil, storage.ErrPostIDNotProvided
	}

	db.mu.Lock()
	var comments []models.Comment
	for _, c := range db.comments {
		if c.PostID == postID {
			comments = append(comments, c)
		}
	}
	db.mu.Unlock()

	return storage.CommentTree(comments), nil
}
