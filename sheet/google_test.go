package sheet

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

// fakeSheetsServer serves the subset of the Sheets and Drive APIs the
// worksheet uses.
type fakeSheetsServer struct {
	mu       sync.Mutex
	files    []string
	tabs     []string
	values   [][]any
	status   int
	appended int
	queries  []string
}

func (f *fakeSheetsServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.status != 0 {
		w.WriteHeader(f.status)
		w.Write([]byte(`{"error":{"code":403,"message":"forbidden"}}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	path := r.URL.Path

	switch {
	case path == "/files":
		f.queries = append(f.queries, r.URL.Query().Get("q"))
		var files []map[string]string
		for _, id := range f.files {
			files = append(files, map[string]string{"id": id, "name": "News_Aggregator"})
		}
		json.NewEncoder(w).Encode(map[string]any{"files": files})

	case strings.HasSuffix(path, ":append") && r.Method == http.MethodPost:
		var body struct {
			Values [][]any `json:"values"`
		}
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &body)
		f.values = append(f.values, body.Values...)
		f.appended++
		w.Write([]byte(`{}`))

	case strings.Contains(path, "/values/"):
		json.NewEncoder(w).Encode(map[string]any{"values": f.values})

	case strings.HasPrefix(path, "/v4/spreadsheets/"):
		id := strings.TrimPrefix(path, "/v4/spreadsheets/")
		if !f.known(id) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":{"code":404,"message":"not found"}}`))
			return
		}
		var sheetsList []map[string]any
		for _, tab := range f.tabs {
			sheetsList = append(sheetsList, map[string]any{
				"properties": map[string]string{"title": tab},
			})
		}
		json.NewEncoder(w).Encode(map[string]any{"sheets": sheetsList})

	default:
		http.NotFound(w, r)
	}
}

func (f *fakeSheetsServer) known(id string) bool {
	for _, known := range f.files {
		if known == id {
			return true
		}
	}
	return false
}

// Test helper: start a fake Google API server
func startFakeSheets(t *testing.T, fake *fakeSheetsServer) []option.ClientOption {
	t.Helper()
	ts := httptest.NewServer(fake)
	t.Cleanup(ts.Close)
	return []option.ClientOption{
		option.WithEndpoint(ts.URL + "/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(ts.Client()),
	}
}

// TestOpenGoogleWorksheet_ByTitle verifies title lookup through Drive
func TestOpenGoogleWorksheet_ByTitle(t *testing.T) {
	fake := &fakeSheetsServer{files: []string{"abc"}, tabs: []string{"Sheet1", "Archive"}}
	opts := startFakeSheets(t, fake)

	ws, err := OpenGoogleWorksheet(context.Background(), GoogleConfig{Title: "News_Aggregator"}, opts...)
	require.NoError(t, err)

	assert.Equal(t, "abc", ws.SpreadsheetID())
	assert.Equal(t, "Sheet1", ws.Tab(), "first tab is used")
	require.Len(t, fake.queries, 1)
	assert.Contains(t, fake.queries[0], "name = 'News_Aggregator'")
}

// TestOpenGoogleWorksheet_ByID verifies an explicit ID skips Drive
func TestOpenGoogleWorksheet_ByID(t *testing.T) {
	fake := &fakeSheetsServer{files: []string{"xyz"}, tabs: []string{"Data"}}
	opts := startFakeSheets(t, fake)

	ws, err := OpenGoogleWorksheet(context.Background(), GoogleConfig{SpreadsheetID: "xyz"}, opts...)
	require.NoError(t, err)
	assert.Equal(t, "Data", ws.Tab())
	assert.Empty(t, fake.queries)
}

// TestOpenGoogleWorksheet_NotFound verifies a missing title is reported
func TestOpenGoogleWorksheet_NotFound(t *testing.T) {
	fake := &fakeSheetsServer{}
	opts := startFakeSheets(t, fake)

	_, err := OpenGoogleWorksheet(context.Background(), GoogleConfig{Title: "Missing"}, opts...)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSpreadsheetNotFound))
	assert.False(t, IsAuthError(err))
}

// TestOpenGoogleWorksheet_UnknownID verifies a 404 maps to not found
func TestOpenGoogleWorksheet_UnknownID(t *testing.T) {
	fake := &fakeSheetsServer{files: []string{"abc"}, tabs: []string{"Sheet1"}}
	opts := startFakeSheets(t, fake)

	_, err := OpenGoogleWorksheet(context.Background(), GoogleConfig{SpreadsheetID: "nope"}, opts...)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSpreadsheetNotFound))
}

// TestOpenGoogleWorksheet_NoTabs verifies a spreadsheet without tabs fails
func TestOpenGoogleWorksheet_NoTabs(t *testing.T) {
	fake := &fakeSheetsServer{files: []string{"abc"}}
	opts := startFakeSheets(t, fake)

	_, err := OpenGoogleWorksheet(context.Background(), GoogleConfig{SpreadsheetID: "abc"}, opts...)
	assert.ErrorIs(t, err, ErrNoWorksheet)
}

// TestOpenGoogleWorksheet_Forbidden verifies 403 responses are auth errors
func TestOpenGoogleWorksheet_Forbidden(t *testing.T) {
	fake := &fakeSheetsServer{status: http.StatusForbidden}
	opts := startFakeSheets(t, fake)

	_, err := OpenGoogleWorksheet(context.Background(), GoogleConfig{SpreadsheetID: "abc"}, opts...)
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
}

// TestOpenGoogleWorksheet_MissingCredentials verifies an unreadable key file
// is an auth error
func TestOpenGoogleWorksheet_MissingCredentials(t *testing.T) {
	_, err := OpenGoogleWorksheet(context.Background(), GoogleConfig{
		Title:           "News_Aggregator",
		CredentialsFile: t.TempDir() + "/missing.json",
	})
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.Contains(t, err.Error(), "failed to read credentials file")
}

// TestGoogleWorksheet_Append verifies rows flow through the appender
func TestGoogleWorksheet_Append(t *testing.T) {
	fake := &fakeSheetsServer{files: []string{"abc"}, tabs: []string{"Sheet1"}}
	opts := startFakeSheets(t, fake)

	ws, err := OpenGoogleWorksheet(context.Background(), GoogleConfig{SpreadsheetID: "abc"}, opts...)
	require.NoError(t, err)

	empty, err := ws.IsEmpty(context.Background())
	require.NoError(t, err)
	assert.True(t, empty)

	result, err := newTestAppender(ws).Append(context.Background(), sampleRows())
	require.NoError(t, err)
	assert.True(t, result.HeaderWritten)
	assert.Equal(t, 3, fake.appended)

	require.Len(t, fake.values, 3)
	assert.Equal(t, []any{"Timestamp", "Source", "Category", "Title", "Link"}, fake.values[0])
	assert.Equal(t, "Reuters", fake.values[2][1])

	empty, err = ws.IsEmpty(context.Background())
	require.NoError(t, err)
	assert.False(t, empty)
}

func TestQuoteTab(t *testing.T) {
	assert.Equal(t, "'Sheet1'", quoteTab("Sheet1"))
	assert.Equal(t, "'Bob''s'", quoteTab("Bob's"))
}

func TestEscapeQueryValue(t *testing.T) {
	assert.Equal(t, `News\'s`, escapeQueryValue("News's"))
	assert.Equal(t, `a\\b`, escapeQueryValue(`a\b`))
}
