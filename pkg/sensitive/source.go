package sensitive

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownFormat = errors.New("unknown word list format")
	ErrSourceStatus  = errors.New("word list source returned unexpected status")
)

// WordSource supplies the banned words a Filter is built from.
type WordSource interface {
	Words(ctx context.Context) ([]string, error)
}

// StaticSource is a fixed in-memory word list.
type StaticSource []string

func (s StaticSource) Words(context.Context) ([]string, error) {
	return s, nil
}

// FileSource reads a word list from a local file. The format is chosen by the
// file extension:
//   - .txt or no extension: one word per line
//   - .json: array of strings or of {"text": "..."} objects
//   - .toml: terms = ["...", ...]
//   - .yaml, .yml: list of strings or a "terms" key
type FileSource struct {
	Path string
}

func (s FileSource) Words(ctx context.Context) ([]string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}

	switch ext := strings.ToLower(filepath.Ext(s.Path)); ext {
	case "", ".txt":
		return ReadWords(bytes.NewReader(data))
	case ".json":
		return parseJSON(data)
	case ".toml":
		return parseTOML(data)
	case ".yaml", ".yml":
		return parseYAML(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
}

// HTTPSource downloads a line based word list.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s HTTPSource) Words(ctx context.Context) ([]string, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrSourceStatus, resp.StatusCode)
	}

	return ReadWords(resp.Body)
}

// ReadWords reads one word per line from r. Blank lines are dropped.
func ReadWords(r io.Reader) ([]string, error) {
	var words []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		w := strings.TrimSpace(sc.Text())
		if w == "" {
			continue
		}
		words = append(words, w)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	return words, nil
}

type jsonWord struct {
	Text string `json:"text"`
}

func parseJSON(data []byte) ([]string, error) {
	var words []string
	if err := json.Unmarshal(data, &words); err == nil {
		return words, nil
	}

	var objects []jsonWord
	if err := json.Unmarshal(data, &objects); err != nil {
		return nil, err
	}

	words = make([]string, 0, len(objects))
	for _, o := range objects {
		words = append(words, o.Text)
	}
	return words, nil
}

type termList struct {
	Terms []string `toml:"terms" yaml:"terms"`
}

func parseTOML(data []byte) ([]string, error) {
	var list termList
	if err := toml.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list.Terms, nil
}

func parseYAML(data []byte) ([]string, error) {
	var words []string
	if err := yaml.Unmarshal(data, &words); err == nil {
		return words, nil
	}

	var list termList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list.Terms, nil
}
