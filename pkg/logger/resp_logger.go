// Package logger records what a handler wrote so it can be logged after the
// request completes.
package logger

import "net/http"

// ResponseLogger wraps an http.ResponseWriter and remembers the status code
// and the number of body bytes written.
type ResponseLogger struct {
	w      http.ResponseWriter
	status int
	bytes  int
	wrote  bool
}

func New(w http.ResponseWriter) *ResponseLogger {
	return &ResponseLogger{w: w, status: http.StatusOK}
}

// WriteHeader records only the first status code, as net/http ignores later calls.
func (l *ResponseLogger) WriteHeader(code int) {
	if l.wrote {
		return
	}
	l.wrote = true
	l.status = code
	l.w.WriteHeader(code)
}

func (l *ResponseLogger) Write(b []byte) (int, error) {
	l.wrote = true
	n, err := l.w.Write(b)
	l.bytes += n
	return n, err
}

func (l *ResponseLogger) Header() http.Header {
	return l.w.Header()
}

func (l *ResponseLogger) Status() int {
	return l.status
}

func (l *ResponseLogger) Bytes() int {
	return l.bytes
}
