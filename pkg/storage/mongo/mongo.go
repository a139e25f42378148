package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"community/pkg/models"
	"community/pkg/storage"
)

const (
	postsCollection    = "posts"
	commentsCollection = "comments"
)

type Storage struct {
	client *mongo.Client
	dbName string
}

func New(ctx context.Context, conf Config) (*Storage, error) {
	opt := conf.Options()
	client, err := mongo.Connect(ctx, opt)
	if err != nil {
		return nil, err
	}

	s := Storage{client: client, dbName: conf.DBName}
	for _, name := range []string{postsCollection, commentsCollection} {
		if err := s.createCollection(ctx, name); err != nil {
			client.Disconnect(ctx)
			return nil, err
		}
	}

	return &s, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Storage) Close(ctx context.Context) {
	s.client.Disconnect(ctx)
}

func (s *Storage) collection(name string) *mongo.Collection {
	return s.client.Database(s.dbName).Collection(name)
}

// AddPost inserts a new post. Zero ID and Published values are generated here.
func (s *Storage) AddPost(ctx context.Context, post models.Post) (models.Post, error) {
	if post.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return models.Post{}, err
		}
		post.ID = id
	}
	if post.Published.IsZero() {
		post.Published = time.Now().UTC().Truncate(time.Millisecond)
	}

	_, err := s.collection(postsCollection).InsertOne(ctx, post)
	if err != nil {
		return models.Post{}, err
	}

	return post, nil
}

func (s *Storage) Post(ctx context.Context, id uuid.UUID) (models.Post, error) {
	var post models.Post
	err := s.collection(postsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Post{}, storage.ErrPostNotFound
		}
		return models.Post{}, err
	}

	post.Published = post.Published.UTC()
	return post, nil
}

// LatestPosts returns one page of posts, newest first, and the number of pages.
func (s *Storage) LatestPosts(ctx context.Context, page, limit int) (posts []models.Post, numPages int, err error) {
	if limit <= 0 {
		limit = 10
	}
	if page <= 0 {
		page = 1
	}

	coll := s.collection(postsCollection)
	opts := options.Find().
		SetSort(bson.D{{Key: "published", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cur, err := coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	if err := cur.All(ctx, &posts); err != nil {
		return nil, 0, err
	}
	for i := range posts {
		posts[i].Published = posts[i].Published.UTC()
	}

	total, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}

	return posts, storage.NumPages(int(total), limit), nil
}

// AddComment inserts a new comment into the database.
//
// Validates that the post exists and, if ParentID is set, verifies the parent comment exists in
// the same post. If the comment's ID or Published timestamp are zero values, they are automatically
// generated here. The comment count of the post is incremented after the insert.
func (s *Storage) AddComment(ctx context.Context, comment models.Comment) (models.Comment, error) {
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
		comment.Published = time.Now().UTC().Truncate(time.Millisecond)
	}
	comment.Replies = nil

	posts := s.collection(postsCollection)
	cnt, err := posts.CountDocuments(ctx, bson.M{"_id": comment.PostID})
	if err != nil {
		return models.Comment{}, err
	}
	if cnt == 0 {
		return models.Comment{}, storage.ErrPostNotFound
	}

	comments := s.collection(commentsCollection)
	if comment.ParentID != uuid.Nil {
		cnt, err := comments.CountDocuments(ctx, bson.M{
			"_id":     comment.ParentID,
			"post_id": comment.PostID,
		})
		if err != nil {
			return models.Comment{}, err
		}
		if cnt == 0 {
			return models.Comment{}, storage.ErrParentCommentNotFound
		}
	}

	_, err = comments.InsertOne(ctx, comment)
	if err != nil {
		return models.Comment{}, err
	}

	_, err = posts.UpdateOne(ctx,
		bson.M{"_id": comment.PostID},
		bson.M{"$inc": bson.M{"comment_count": 1}},
	)
	if err != nil {
		return models.Comment{}, fmt.Errorf("comment %v stored, failed to update post: %w", comment.ID, err)
	}

	return comment, nil
}

// Comments returns the nested comment tree for a given postID.
func (s *Storage) Comments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	if postID == uuid.Nil {
		return nil, storage.ErrPostIDNotProvided
	}

	opts := options.Find().SetSort(bson.D{{Key: "published", Value: 1}})
	cur, err := s.collection(commentsCollection).Find(ctx, bson.M{"post_id": postID}, opts)
	if err != nil {
		return nil, err
	}

	var comments []models.Comment
	if err := cur.All(ctx, &comments); err != nil {
		return nil, err
	}
	for i := range comments {
		comments[i].Published = comments[i].Published.UTC()
	}

	return storage.CommentTree(comments), nil
}

// createCollection creates a collection with the given name in the database if it doesn't already exist.
func (s *Storage) createCollection(ctx context.Context, collName string) error {
	collExists, err := collectionExists(ctx, s.client.Database(s.dbName), collName)
	if err != nil {
		return err
	}

	if !collExists {
		err := s.client.Database(s.dbName).CreateCollection(ctx, collName)
		if err != nil {
			return err
		}
	}

	return nil
}

// collectionExists checks if a collection with the given name exists in the database.
func collectionExists(ctx context.Context, db *mongo.Database, collName string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return false, fmt.Errorf("failed to list collection names: %w", err)
	}

	for _, name := range names {
		if name == collName {
			return true, nil
		}
	}

	return false, nil
}
