package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gofrs/uuid"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"community/pkg/logger"
)

const logWriteTimeout = 10 * time.Second

type ctxKeyRequestID struct{}

var RequestIDKey = ctxKeyRequestID{}

func (api *API) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			id, err := uuid.NewV4()
			if err != nil {
				log.Errorf("[requestIDMiddleware] failed to generate request ID for %v: %v", r.RemoteAddr, err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			reqID = id.String()
			log.Debugf("[requestIDMiddleware] generated request ID:%s for %v", reqID, r.RemoteAddr)
		}

		w.Header().Set("X-Request-Id", reqID)
		ctx := context.WithValue(r.Context(), RequestIDKey, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (api *API) headerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware reports every finished request to kWriter. The write
// happens in its own goroutine and never delays the response.
func (api *API) loggingMiddleware(kWriter LogWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lw := logger.New(w)

			next.ServeHTTP(lw, r)

			entry := LogEntry{
				Timestamp:  start.UTC(),
				IP:         getClientIP(r),
				StatusCode: lw.Status(),
				RequestID:  GetRequestID(r.Context()),
				Method:     r.Method,
				Path:       r.URL.Path,
				Duration:   time.Since(start).Seconds(),
				BytesOut:   lw.Bytes(),
				Service:    api.ServiceName,
			}
			go shipLog(kWriter, entry)
		})
	}
}

func shipLog(kWriter LogWriter, entry LogEntry) {
	sID := shorten(entry.RequestID)

	value, err := json.Marshal(entry)
	if err != nil {
		log.Errorf("[loggingMiddleware][%s] failed to marshal log entry: %v", sID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), logWriteTimeout)
	defer cancel()

	err = kWriter.WriteMessages(ctx, kafka.Message{Key: []byte(entry.Service), Value: value})
	if err != nil {
		log.Errorf("[loggingMiddleware][%s] failed to write log entry to Kafka: %v", sID, err)
		return
	}
	log.Debugf("[loggingMiddleware][%s] log entry sent to Kafka", sID)
}

func getClientIP(r *http.Request) string {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = r.RemoteAddr
	}

	return ip
}
