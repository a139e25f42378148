package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"community/pkg/models"
	"community/pkg/storage"
)

type Store struct {
	db *pgxpool.Pool
}

func New(ctx context.Context, conStr string) (*Store, error) {
	db, err := pgxpool.Connect(ctx, conStr)
	if err != nil {
		return nil, err
	}
	s := Store{
		db: db,
	}

	return &s, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Store) Close() {
	s.db.Close()
}

// AddPost inserts a post. A missing ID is generated as UUIDv4 and a zero
// Published time is set to the current time. The stored post is returned.
func (s *Store) AddPost(ctx context.Context, post models.Post) (models.Post, error) {
	if post.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return models.Post{}, err
		}
		post.ID = id
	}
	if post.Published.IsZero() {
		post.Published = time.Now().UTC().Truncate(time.Microsecond)
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO posts (id, author, title, content, comment_count, published)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		post.ID,
		post.Author,
		post.Title,
		post.Content,
		post.CommentCount,
		post.Published,
	)
	if err != nil {
		return models.Post{}, err
	}

	return post, nil
}

// Post retrieves a post by its ID. It returns storage.ErrPostNotFound when no
// such post exists.
func (s *Store) Post(ctx context.Context, id uuid.UUID) (post models.Post, err error) {
	err = s.db.QueryRow(ctx, `
		SELECT id, author, title, content, comment_count, published
		FROM posts
		WHERE id = $1
	`,
		id,
	).Scan(
		&post.ID,
		&post.Author,
		&post.Title,
		&post.Content,
		&post.CommentCount,
		&post.Published,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = storage.ErrPostNotFound
		}
		return models.Post{}, err
	}

	post.Published = post.Published.UTC()
	return post, nil
}

// LatestPosts returns a paginated list of posts ordered by published date descending.
// If page or limit are less than or equal to zero, they default to 1 and 10 respectively.
// The method returns the posts for the requested page and the total number of pages available.
func (s *Store) LatestPosts(ctx context.Context, page, limit int) (posts []models.Post, numPages int, err error) {
	if limit <= 0 {
		limit = 10
	}
	if page <= 0 {
		page = 1
	}

	offset := (page - 1) * limit

	rows, err := s.db.Query(ctx, `
		SELECT id, author, title, content, comment_count, published
		FROM posts
		ORDER BY published DESC
		LIMIT $1 OFFSET $2
	`,
		limit,
		offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Post
		err := rows.Scan(
			&p.ID,
			&p.Author,
			&p.Title,
			&p.Content,
			&p.CommentCount,
			&p.Published,
		)
		if err != nil {
			return nil, 0, err
		}
		p.Published = p.Published.UTC()
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var totalPosts int
	err = s.db.QueryRow(ctx, `SELECT COUNT(id) FROM posts`).Scan(&totalPosts)
	if err != nil {
		return nil, 0, err
	}

	return posts, storage.NumPages(totalPosts, limit), nil
}

// AddComment inserts a comment and increments the comment count of its post
// within a single transaction.
//
// The post must exist and, if ParentID is set, the parent comment must belong
// to the same post.
func (s *Store) AddComment(ctx context.Context, comment models.Comment) (models.Comment, error) {
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
		comment.Published = time.Now().UTC().Truncate(time.Microsecond)
	}
	comment.Replies = nil

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return models.Comment{}, err
	}
	defer tx.Rollback(ctx)

	if comment.ParentID != uuid.Nil {
		var cnt int
		err := tx.QueryRow(ctx, `
			SELECT COUNT(id) FROM comments WHERE id = $1 AND post_id = $2
		`,
			comment.ParentID,
			comment.PostID,
		).Scan(&cnt)
		if err != nil {
			return models.Comment{}, err
		}
		if cnt == 0 {
			return models.Comment{}, storage.ErrParentCommentNotFound
		}
	}

	tag, err := tx.Exec(ctx, `
		UPDATE posts SET comment_count = comment_count + 1 WHERE id = $1
	`,
		comment.PostID,
	)
	if err != nil {
		return models.Comment{}, err
	}
	if tag.RowsAffected() == 0 {
		return models.Comment{}, storage.ErrPostNotFound
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO comments (id, post_id, parent_id, author, text, published)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		comment.ID,
		comment.PostID,
		uuid.NullUUID{UUID: comment.ParentID, Valid: comment.ParentID != uuid.Nil},
		comment.Author,
		comment.Text,
		comment.Published,
	)
	if err != nil {
		return models.Comment{}, err
	}

	return comment, tx.Commit(ctx)
}

// Comments returns the comment tree of the post with the given ID.
func (s *Store) Comments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	if postID == uuid.Nil {
		return nil, storage.ErrPostIDNotProvided
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, post_id, parent_id, author, text, published
		FROM comments
		WHERE post_id = $1
		ORDER BY published ASC
	`,
		postID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var (
			c      models.Comment
			parent uuid.NullUUID
		)
		err := rows.Scan(
			&c.ID,
			&c.PostID,
			&parent,
			&c.Author,
			&c.Text,
			&c.Published,
		)
		if err != nil {
			return nil, err
		}
		c.ParentID = parent.UUID
		c.Published = c.Published.UTC()
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return storage.CommentTree(comments), nil
}
