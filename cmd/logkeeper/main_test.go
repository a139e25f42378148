package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/h2non/gock"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"community/pkg/api"
)

const testESNode = "http://es.local:9200"

func TestMain(m *testing.M) {
	log.SetLevel(log.PanicLevel)
	exitCode := m.Run()
	os.Exit(exitCode)
}

func newTestIndexer(t *testing.T) *indexer {
	t.Helper()

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{testESNode}})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return &indexer{es: es, index: "community-logs"}
}

func testEntry(t *testing.T) []byte {
	t.Helper()

	data, err := json.Marshal(api.LogEntry{
		Timestamp:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		StatusCode: http.StatusOK,
		RequestID:  "req1",
		Method:     http.MethodPost,
		Path:       "/filter",
		Service:    "community",
	})
	if err != nil {
		t.Fatalf("failed to marshal entry: %v", err)
	}
	return data
}

func TestIndexer_store(t *testing.T) {
	defer gock.Off()

	gock.New(testESNode).
		Put("/community-logs/_doc/communityreq1").
		Reply(http.StatusCreated).
		SetHeader("X-Elastic-Product", "Elasticsearch").
		JSON(map[string]string{"result": "created"})

	ix := newTestIndexer(t)
	entry, err := ix.store(context.Background(), testEntry(t))
	if err != nil {
		t.Fatalf("store() returned error: %v", err)
	}
	if entry.RequestID != "req1" || entry.Path != "/filter" {
		t.Errorf("unexpected entry %+v", entry)
	}
	if !gock.IsDone() {
		t.Error("document was not sent to Elasticsearch")
	}
}

func TestIndexer_storeErrors(t *testing.T) {
	defer gock.Off()

	gock.New(testESNode).
		Put("/community-logs/_doc/communityreq1").
		Reply(http.StatusBadRequest).
		JSON(map[string]string{"error": "mapper_parsing_exception"})

	ix := newTestIndexer(t)

	_, err := ix.store(context.Background(), testEntry(t))
	if !errors.Is(err, ErrIndexRejected) {
		t.Errorf("want error %v, got %v", ErrIndexRejected, err)
	}

	_, err = ix.store(context.Background(), []byte("not json"))
	if err == nil {
		t.Error("want unmarshal error, got nil")
	}
}

func TestLogWorker(t *testing.T) {
	defer gock.Off()

	gock.New(testESNode).
		Put("/community-logs/_doc/communityreq1").
		Times(2).
		Reply(http.StatusCreated).
		SetHeader("X-Elastic-Product", "Elasticsearch").
		JSON(map[string]string{"result": "created"})

	ix := newTestIndexer(t)
	jobs := make(chan kafka.Message, 2)
	jobs <- kafka.Message{Value: testEntry(t)}
	jobs <- kafka.Message{Value: testEntry(t)}
	close(jobs)

	done := make(chan struct{})
	go func() {
		logWorker(context.Background(), ix, jobs, 0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not exit after jobs channel was closed")
	}
	if !gock.IsDone() {
		t.Error("not every log entry was indexed")
	}
}
