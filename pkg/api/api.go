package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/gorilla/mux"
	"github.com/microcosm-cc/bluemonday"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"community/pkg/models"
	"community/pkg/sensitive"
	"community/pkg/storage"
)

const (
	maxPostsLimit = 100
	maxBodyBytes  = 1 << 20
)

// LogWriter ships request log entries, *kafka.Writer satisfies it.
type LogWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type API struct {
	ServiceName string
	DB          storage.Storage

	r         *mux.Router
	filter    *sensitive.Filter
	sanitizer *bluemonday.Policy
	kw        LogWriter
}

// New creates the API. Texts submitted by users are stripped of markup and
// passed through filter before they reach db. kafkaWriter may be nil, in
// which case request logs are not shipped.
func New(name string, db storage.Storage, filter *sensitive.Filter, kafkaWriter LogWriter) *API {
	api := API{
		ServiceName: name,
		DB:          db,
		r:           mux.NewRouter(),
		filter:      filter,
		sanitizer:   bluemonday.StrictPolicy(),
		kw:          kafkaWriter,
	}
	api.endpoints()

	return &api
}

func (api *API) Router() *mux.Router {
	return api.r
}

func (api *API) endpoints() {
	api.r.Use(api.requestIDMiddleware)
	api.r.Use(api.headerMiddleware)

	if api.kw != nil {
		api.r.Use(api.loggingMiddleware(api.kw))
	}

	api.r.HandleFunc("/posts", api.createPostHandler).Methods(http.MethodPost)
	api.r.HandleFunc("/posts/latest", api.latestPostsHandler).Methods(http.MethodGet)
	api.r.HandleFunc("/posts/{id:[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$}", api.postDetailedHandler).Methods(http.MethodGet)

	api.r.HandleFunc("/comments", api.createCommentHandler).Methods(http.MethodPost)
	api.r.HandleFunc("/comments", api.commentsHandler).Methods(http.MethodGet)

	api.r.HandleFunc("/filter", api.filterHandler).Methods(http.MethodPost)
	api.r.HandleFunc("/filter/status", api.filterStatusHandler).Methods(http.MethodGet)
}

// clean strips markup from text, then replaces banned words.
func (api *API) clean(text string) string {
	return api.filter.Filter(api.sanitizer.Sanitize(text))
}

func (api *API) createPostHandler(w http.ResponseWriter, r *http.Request) {
	sID := shorten(GetRequestID(r.Context()))

	var req PostRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		log.Debugf("[createPostHandler][%s] failed to decode request body: %v", sID, err)
		return
	}
	defer r.Body.Close()

	post := models.Post{
		Author:  strings.TrimSpace(req.Author),
		Title:   api.clean(req.Title),
		Content: api.clean(req.Content),
	}
	if isBlank(post.Title) || isBlank(post.Content) {
		http.Error(w, "Title and content are required", http.StatusBadRequest)
		log.Debugf("[createPostHandler][%s] request with blank title or content", sID)
		return
	}

	post, err := api.DB.AddPost(r.Context(), post)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[createPostHandler][%s] AddPost() returned error: %v", sID, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(post); err != nil {
		log.Errorf("[createPostHandler][%s] failed to encode response data: %v", sID, err)
		return
	}
	log.Debugf("[createPostHandler][%s] post %v created", sID, post.ID)
}

func (api *API) latestPostsHandler(w http.ResponseWriter, r *http.Request) {
	sID := shorten(GetRequestID(r.Context()))

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = 10
	}

	if limit > maxPostsLimit {
		http.Error(w, "Limit parameter is too big", http.StatusBadRequest)
		log.Debugf("[latestPostsHandler][%s] request with too big limit parameter", sID)
		return
	}

	posts, numPages, err := api.DB.LatestPosts(r.Context(), page, limit)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[latestPostsHandler][%s] LatestPosts() returned error: %v", sID, err)
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}

	resp := PostsResponse{
		Posts:      posts,
		Pagination: Pagination{TotalPages: numPages, CurrentPage: page, Limit: limit},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[latestPostsHandler][%s] failed to encode response data: %v", sID, err)
		return
	}
	log.Debugf("[latestPostsHandler][%s] response sent to: %v", sID, r.RemoteAddr)
}

func (api *API) postDetailedHandler(w http.ResponseWriter, r *http.Request) {
	sID := shorten(GetRequestID(r.Context()))

	id, err := uuid.FromString(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid UUID parameter", http.StatusBadRequest)
		log.Debugf("[postDetailedHandler][%s] failed to parse post ID: %v", sID, err)
		return
	}

	post, err := api.DB.Post(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			http.Error(w, "Post not found", http.StatusNotFound)
			log.Debugf("[postDetailedHandler][%s] failed to retrieve post: %v", sID, err)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[postDetailedHandler][%s] post ID:%v: %v", sID, id, err)
		return
	}

	comments, err := api.DB.Comments(r.Context(), id)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[postDetailedHandler][%s] comments of post ID:%v: %v", sID, id, err)
		return
	}
	if comments == nil {
		comments = []*models.Comment{}
	}

	err = json.NewEncoder(w).Encode(PostDetailed{Post: post, Comments: comments})
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[postDetailedHandler][%s] failed to encode post data: %v", sID, err)
		return
	}
	log.Debugf("[postDetailedHandler][%s] response sent to: %v", sID, r.RemoteAddr)
}

func (api *API) createCommentHandler(w http.ResponseWriter, r *http.Request) {
	sID := shorten(GetRequestID(r.Context()))

	var req CommentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		log.Debugf("[createCommentHandler][%s] failed to decode request body: %v", sID, err)
		return
	}
	defer r.Body.Close()

	comment := models.Comment{
		PostID:   req.PostID,
		ParentID: req.ParentID,
		Author:   strings.TrimSpace(req.Author),
		Text:     api.clean(req.Text),
	}
	if isBlank(comment.Text) {
		http.Error(w, "Text is required", http.StatusBadRequest)
		log.Debugf("[createCommentHandler][%s] request with blank text", sID)
		return
	}

	comment, err := api.DB.AddComment(r.Context(), comment)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrPostIDNotProvided), errors.Is(err, storage.ErrParentCommentNotFound):
			http.Error(w, err.Error(), http.StatusBadRequest)
			log.Debugf("[createCommentHandler][%s] invalid comment: %v", sID, err)
		case errors.Is(err, storage.ErrPostNotFound):
			http.Error(w, "Post not found", http.StatusNotFound)
			log.Debugf("[createCommentHandler][%s] invalid comment: %v", sID, err)
		default:
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			log.Errorf("[createCommentHandler][%s] AddComment() returned error: %v", sID, err)
		}
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(comment); err != nil {
		log.Errorf("[createCommentHandler][%s] failed to encode response data: %v", sID, err)
		return
	}
	log.Debugf("[createCommentHandler][%s] comment %v created", sID, comment.ID)
}

func (api *API) commentsHandler(w http.ResponseWriter, r *http.Request) {
	sID := shorten(GetRequestID(r.Context()))

	postID, err := uuid.FromString(r.URL.Query().Get("post_id"))
	if err != nil || postID == uuid.Nil {
		http.Error(w, "Invalid post_id parameter", http.StatusBadRequest)
		log.Debugf("[commentsHandler][%s] failed to parse post ID: %v", sID, err)
		return
	}

	comments, err := api.DB.Comments(r.Context(), postID)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[commentsHandler][%s] Comments() returned error: %v", sID, err)
		return
	}
	if comments == nil {
		comments = []*models.Comment{}
	}

	if err := json.NewEncoder(w).Encode(comments); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[commentsHandler][%s] failed to encode response data: %v", sID, err)
		return
	}
}

// filterHandler runs the filter on raw text. No markup is stripped here.
func (api *API) filterHandler(w http.ResponseWriter, r *http.Request) {
	sID := shorten(GetRequestID(r.Context()))

	var req FilterRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		log.Debugf("[filterHandler][%s] failed to decode request body: %v", sID, err)
		return
	}
	defer r.Body.Close()

	text, n := api.filter.Replace(req.Text)
	resp := FilterResponse{Text: text, Filtered: n > 0, Replaced: n}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[filterHandler][%s] failed to encode response data: %v", sID, err)
		return
	}
	log.Debugf("[filterHandler][%s] %d words replaced", sID, n)
}

func (api *API) filterStatusHandler(w http.ResponseWriter, r *http.Request) {
	status := FilterStatus{
		Status: string(api.filter.Status()),
		Words:  api.filter.Words(),
	}
	if err := api.filter.Err(); err != nil {
		status.Error = err.Error()
	}

	if err := json.NewEncoder(w).Encode(status); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		log.Errorf("[filterStatusHandler] failed to encode response data: %v", err)
	}
}

// GetRequestID extracts the request ID from the context.
// It returns the request ID as a string if present, otherwise returns an empty string.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// shorten truncates a string to 6 characters if it is longer than 6, appends '...' at the end,
// otherwise it returns the string unchanged.
func shorten(s string) string {
	if len(s) > 6 {
		return s[:6] + "..."
	}
	return s
}
