package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pevans/newspick/config"
	"github.com/pevans/newspick/sheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: start a fake SerpAPI server answering by query
func startFakeSerpAPI(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("q") {
		case "top news in the US":
			w.Write([]byte(`{"news_results": [
				{"title": "Senate vote", "link": "https://apnews.com/1", "source": {"name": "The Associated Press"}},
				{"title": "Blog post", "link": "https://blog.example/1", "source": {"name": "Some Blog"}},
				{"title": "Markets rally", "link": "https://reuters.com/1", "source": "Reuters"}
			]}`))
		case "world news":
			w.Write([]byte(`{"news_results": [
				{"title": "Summit opens", "link": "https://bbc.com/1", "source": {"name": "BBC.com"}}
			]}`))
		default:
			w.Write([]byte(`{}`))
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

// Test helper: default config pointed at a fake search server and a sqlite
// sheet
func testRunConfig(t *testing.T, endpoint string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Search.Endpoint = endpoint
	cfg.Sheet = config.SheetConfig{
		Type: "sqlite",
		Name: "News_Aggregator",
		DSN:  filepath.Join(t.TempDir(), "sheet.db"),
	}
	return cfg
}

// TestRunRoundup_PrintsAndAppends verifies the full run against a sqlite
// sheet
func TestRunRoundup_PrintsAndAppends(t *testing.T) {
	ts := startFakeSerpAPI(t)
	cfg := testRunConfig(t, ts.URL)
	var out bytes.Buffer

	code := runRoundup(context.Background(), &out, cfg, runOptions{
		apiKey: "test-key",
		date:   "2025-02-14",
		format: formatTable,
	})
	assert.Equal(t, 0, code)

	output := out.String()
	assert.Contains(t, output, "Top US News Stories (One per Source):")
	assert.Contains(t, output, "The Associated Press: Senate vote (https://apnews.com/1)")
	assert.Contains(t, output, "Reuters: Markets rally (https://reuters.com/1)")
	assert.Contains(t, output, "BBC.com: No story found.")
	assert.Contains(t, output, "Top World News Stories (One per Source):")
	assert.Contains(t, output, "BBC.com: Summit opens (https://bbc.com/1)")
	assert.NotContains(t, output, "Some Blog")
	assert.Contains(t, output, "News successfully added to")

	ws, err := sheet.OpenSQLWorksheet(context.Background(), sheet.DialectSQLite, cfg.Sheet.DSN, cfg.Sheet.Name)
	require.NoError(t, err)
	defer ws.Close()

	rows, err := ws.Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, sheet.Header, rows[0])
	assert.Equal(t, []string{"The Associated Press", "US", "Senate vote", "https://apnews.com/1"}, rows[1][1:])
	assert.Equal(t, []string{"Reuters", "US", "Markets rally", "https://reuters.com/1"}, rows[2][1:])
	assert.Equal(t, []string{"BBC.com", "World", "Summit opens", "https://bbc.com/1"}, rows[3][1:])
}

// TestRunRoundup_NoSheet verifies nothing is appended when disabled
func TestRunRoundup_NoSheet(t *testing.T) {
	ts := startFakeSerpAPI(t)
	cfg := testRunConfig(t, ts.URL)
	var out bytes.Buffer

	code := runRoundup(context.Background(), &out, cfg, runOptions{
		apiKey:  "test-key",
		date:    "2025-02-14",
		format:  formatTable,
		noSheet: true,
	})
	assert.Equal(t, 0, code)
	assert.NotContains(t, out.String(), "successfully added")
	assert.NoFileExists(t, cfg.Sheet.DSN)
}

// TestRunRoundup_AuthFailureExitsOne verifies credential failures are the
// only abnormal exit, and results are still printed
func TestRunRoundup_AuthFailureExitsOne(t *testing.T) {
	ts := startFakeSerpAPI(t)
	cfg := testRunConfig(t, ts.URL)
	cfg.Sheet = config.SheetConfig{
		Type:        "google",
		Name:        "News_Aggregator",
		Credentials: filepath.Join(t.TempDir(), "missing.json"),
	}
	var out bytes.Buffer

	code := runRoundup(context.Background(), &out, cfg, runOptions{
		apiKey: "test-key",
		date:   "2025-02-14",
		format: formatTable,
	})
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "Senate vote")
	assert.NotContains(t, out.String(), "successfully added")
}

// TestRunRoundup_SearchFailureExitsZero verifies search errors are absorbed
func TestRunRoundup_SearchFailureExitsZero(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "Invalid API key."}`))
	}))
	defer ts.Close()
	cfg := testRunConfig(t, ts.URL)
	var out bytes.Buffer

	code := runRoundup(context.Background(), &out, cfg, runOptions{
		apiKey: "bad-key",
		date:   "2025-02-14",
		format: formatTable,
	})
	assert.Equal(t, 0, code)
	assert.Equal(t, 6, strings.Count(out.String(), "No story found."))
}

// TestRunRoundup_JSON verifies the JSON report shape
func TestRunRoundup_JSON(t *testing.T) {
	ts := startFakeSerpAPI(t)
	cfg := testRunConfig(t, ts.URL)
	var out bytes.Buffer

	code := runRoundup(context.Background(), &out, cfg, runOptions{
		apiKey:  "test-key",
		date:    "2025-02-14",
		format:  formatJSON,
		noSheet: true,
	})
	require.Equal(t, 0, code)

	var report reportJSON
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, "2025-02-14", report.Date)
	assert.NotEmpty(t, report.RunID)
	require.Len(t, report.Categories, 2)
	assert.Equal(t, "ok", report.Categories[0].Status)
	require.Len(t, report.Categories[0].Picks, 3)
	assert.Equal(t, "The Associated Press", report.Categories[0].Picks[0].Publisher)
	assert.Len(t, report.Categories[0].Picks[0].Stories, 1)
	assert.Empty(t, report.Categories[0].Picks[2].Stories)
	assert.Nil(t, report.Append)
}

// Test helper: start a search server that counts requests
func startCountingServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"news_results": []}`))
	}))
	t.Cleanup(ts.Close)
	return ts, &hits
}

// TestRunInteractive_EmptyKeyExits verifies an empty key stops the run with
// status 0 and no request
func TestRunInteractive_EmptyKeyExits(t *testing.T) {
	ts, hits := startCountingServer(t)
	cfg := testRunConfig(t, ts.URL)
	var out bytes.Buffer

	code := runInteractive(context.Background(), strings.NewReader("\n2025-02-14\n"), &out, cfg,
		runOptions{format: formatTable}, true)

	assert.Equal(t, 0, code)
	assert.Equal(t, int32(0), hits.Load(), "no request should be made")
	assert.Equal(t, "Enter your SerpAPI Key: "+
		"Enter the date (YYYY-MM-DD) for the news: "+
		"API key is required. Exiting...\n", out.String())
	assert.NoFileExists(t, cfg.Sheet.DSN)
}

// TestRunInteractive_PromptedKey verifies prompted values drive the run
func TestRunInteractive_PromptedKey(t *testing.T) {
	var (
		hits  atomic.Int32
		mu    sync.Mutex
		query []string
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		mu.Lock()
		query = append(query, r.URL.Query().Get("api_key")+"|"+r.URL.Query().Get("tbs"))
		mu.Unlock()
		w.Write([]byte(`{"news_results": []}`))
	}))
	defer ts.Close()
	cfg := testRunConfig(t, ts.URL)
	var out bytes.Buffer

	code := runInteractive(context.Background(), strings.NewReader(" typed-key \n2025-02-14\n"), &out, cfg,
		runOptions{format: formatTable, noSheet: true}, true)

	assert.Equal(t, 0, code)
	assert.Equal(t, int32(2), hits.Load(), "one request per category")
	mu.Lock()
	defer mu.Unlock()
	for _, q := range query {
		assert.Equal(t, "typed-key|cdr:1,cd_min:2025-02-14,cd_max:2025-02-14", q)
	}
}

// TestRunInteractive_KeyGiven verifies no prompt appears for a supplied key
// and date
func TestRunInteractive_KeyGiven(t *testing.T) {
	ts, hits := startCountingServer(t)
	cfg := testRunConfig(t, ts.URL)
	var out bytes.Buffer

	code := runInteractive(context.Background(), strings.NewReader(""), &out, cfg,
		runOptions{apiKey: "k", date: "2025-02-14", format: formatTable, noSheet: true}, false)

	assert.Equal(t, 0, code)
	assert.Equal(t, int32(2), hits.Load())
	assert.NotContains(t, out.String(), "Enter")
}
