package memdb

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/gofrs/uuid"

	"community/pkg/models"
	"community/pkg/storage"
)

func TestDB_AddPost(t *testing.T) {
	db := New()

	post, err := db.AddPost(context.Background(), models.Post{
		Author:  "alice",
		Title:   "Hello",
		Content: "First post",
	})
	if err != nil {
		t.Fatalf("unexpected error while adding post: %v", err)
	}
	if post.ID == uuid.Nil {
		t.Error("post id has uuid.Nil value")
	}
	if post.Published.IsZero() {
		t.Error("post published has zero time value")
	}

	got, err := db.Post(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("unexpected error retrieving post: %v", err)
	}
	if !reflect.DeepEqual(post, got) {
		t.Errorf("want post\n%+v\ngot post\n%+v\n", post, got)
	}
}

func TestDB_PostNotFound(t *testing.T) {
	db := New()

	_, err := db.Post(context.Background(), uuid.Must(uuid.NewV4()))
	if !errors.Is(err, storage.ErrPostNotFound) {
		t.Errorf("want error %v, got %v", storage.ErrPostNotFound, err)
	}
}

func TestDB_AddComment(t *testing.T) {
	db := New()
	ctx := context.Background()

	post, err := db.AddPost(ctx, models.Post{Title: "Post", Content: "Content"})
	if err != nil {
		t.Fatalf("unexpected error while adding post: %v", err)
	}
	otherPost, err := db.AddPost(ctx, models.Post{Title: "Other", Content: "Content"})
	if err != nil {
		t.Fatalf("unexpected error while adding post: %v", err)
	}

	comment, err := db.AddComment(ctx, models.Comment{PostID: post.ID, Author: "bob", Text: "Nice"})
	if err != nil {
		t.Fatalf("unexpected error adding comment: %v", err)
	}
	_, err = db.AddComment(ctx, models.Comment{PostID: post.ID, ParentID: comment.ID, Author: "carol", Text: "Agree"})
	if err != nil {
		t.Fatalf("unexpected error adding reply: %v", err)
	}

	tests := []struct {
		name    string
		comment models.Comment
		wantErr error
	}{
		{"Missing post id", models.Comment{Text: "x"}, storage.ErrPostIDNotProvided},
		{"Unknown post", models.Comment{PostID: uuid.Must(uuid.NewV4()), Text: "x"}, storage.ErrPostNotFound},
		{"Unknown parent", models.Comment{PostID: post.ID, ParentID: uuid.Must(uuid.NewV4()), Text: "x"}, storage.ErrParentCommentNotFound},
		{"Parent from other post", models.Comment{PostID: otherPost.ID, ParentID: comment.ID, Text: "x"}, storage.ErrParentCommentNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.AddComment(ctx, tt.comment)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("want error %v, got %v", tt.wantErr, err)
			}
		})
	}

	got, err := db.Post(ctx, post.ID)
	if err != nil {
		t.Fatalf("unexpected error retrieving post: %v", err)
	}
	if got.CommentCount != 2 {
		t.Errorf("want comment count 2, got %d", got.CommentCount)
	}
}

func TestDB_Comments(t *testing.T) {
	db := New()
	ctx := context.Background()

	post, err := db.AddPost(ctx, models.Post{Title: "Post", Content: "Content"})
	if err != nil {
		t.Fatalf("unexpected error while adding post: %v", err)
	}

	root, err := db.AddComment(ctx, models.Comment{
		PostID:    post.ID,
		Author:    "Alice",
		Text:      "Top-level comment",
		Published: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error adding comment: %v", err)
	}
	reply, err := db.AddComment(ctx, models.Comment{
		PostID:    post.ID,
		ParentID:  root.ID,
		Author:    "Bob",
		Text:      "Reply to top-level comment",
		Published: time.Date(2025, 5, 1, 10, 5, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error adding reply: %v", err)
	}

	gotComments, err := db.Comments(ctx, post.ID)
	if err != nil {
		t.Fatalf("unexpected error retrieving comments: %v", err)
	}

	root.Replies = []*models.Comment{&reply}
	wantComments := []*models.Comment{&root}
	if !reflect.DeepEqual(wantComments, gotComments) {
		t.Errorf("want comments\n%+v\n\ngot comments\n%+v\n", wantComments, gotComments)
	}
}

func TestDB_LatestPosts(t *testing.T) {
	db := New()

	// Test posts from newest to oldest.
	testPosts := []models.Post{
		{
			Title:     "Seventh Post",
			Content:   "Content 7",
			Published: time.Date(2025, 9, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			Title:     "Sixth Post",
			Content:   "Content 6",
			Published: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			Title:     "Fifth Post",
			Content:   "Content 5",
			Published: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			Title:     "Fourth Post",
			Content:   "Content 4",
			Published: time.Date(2025, 3, 13, 5, 0, 15, 0, time.UTC),
		},
		{
			Title:     "Third Post",
			Content:   "Content 3",
			Published: time.Date(2025, 3, 13, 5, 0, 10, 0, time.UTC),
		},
		{
			Title:     "Second Post",
			Content:   "Content 2",
			Published: time.Date(2024, 10, 8, 22, 2, 0, 0, time.UTC),
		},
		{
			Title:     "First Post",
			Content:   "Content 1",
			Published: time.Date(2024, 10, 8, 22, 0, 0, 0, time.UTC),
		},
	}

	normalizeSlice := func(s []string) []string {
		if s == nil {
			return []string{}
		}

		slices.Sort(s)
		return s
	}

	for _, post := range testPosts {
		_, err := db.AddPost(context.Background(), post)
		if err != nil {
			t.Fatalf("unexpected error while adding posts: %v", err)
		}
	}

	tests := []struct {
		name         string
		currentPage  int
		limit        int
		wantTitles   []string
		wantNumPages int
	}{
		{
			name:         "First page, 3 per page",
			currentPage:  1,
			limit:        3,
			wantTitles:   []string{"Seventh Post", "Sixth Post", "Fifth Post"},
			wantNumPages: 3,
		},
		{
			name:         "Second page, 3 per page",
			currentPage:  2,
			limit:        3,
			wantTitles:   []string{"Fourth Post", "Third Post", "Second Post"},
			wantNumPages: 3,
		},
		{
			name:         "Third page, 3 per page (last page, fewer items)",
			currentPage:  3,
			limit:        3,
			wantTitles:   []string{"First Post"},
			wantNumPages: 3,
		},
		{
			name:         "Page out of range (too high)",
			currentPage:  4,
			limit:        3,
			wantTitles:   []string{},
			wantNumPages: 3,
		},
		{
			name:         "All posts on one page",
			currentPage:  1,
			limit:        10,
			wantTitles:   []string{"Seventh Post", "Sixth Post", "Fifth Post", "Fourth Post", "Third Post", "Second Post", "First Post"},
			wantNumPages: 1,
		},
		{
			name:         "Zero items per page (should handle gracefully)",
			currentPage:  1,
			limit:        0,
			wantTitles:   []string{},
			wantNumPages: 0,
		},
		{
			name:         "Negative page number (should treat as first page)",
			currentPage:  -1,
			limit:        3,
			wantTitles:   []string{"Seventh Post", "Sixth Post", "Fifth Post"},
			wantNumPages: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, pagesNum, err := db.LatestPosts(context.Background(), tt.currentPage, tt.limit)
			if err != nil {
				t.Fatalf("LatestPosts returned error: %v", err)
			}
			if pagesNum != tt.wantNumPages {
				t.Errorf("want pagesNum %d, got %d", tt.wantNumPages, pagesNum)
			}
			var gotTitles []string
			for _, p := range posts {
				gotTitles = append(gotTitles, p.Title)
			}
			gotTitles = normalizeSlice(gotTitles)
			tt.wantTitles = normalizeSlice(tt.wantTitles)
			if !reflect.DeepEqual(gotTitles, tt.wantTitles) {
				t.Errorf("want titles %v, got %v", tt.wantTitles, gotTitles)
			}
		})
	}
}
