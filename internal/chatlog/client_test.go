package chatlog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch_Success(t *testing.T) {
	t.Parallel()
	var gotTime, gotTalker, gotUA, gotRawQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTime = r.URL.Query().Get("time")
		gotTalker = r.URL.Query().Get("talker")
		gotUA = r.Header.Get("User-Agent")
		gotRawQuery = r.URL.RawQuery
		_, _ = w.Write([]byte("\n  10:01 bob: hi\n10:02 amy: hello  \n"))
	}))
	defer srv.Close()

	c := New(srv.URL + "/api/v1/chatlog")
	res := c.Fetch(context.Background(), "项目 群&A", "2025-05-01", "2025-05-27")

	assert.Equal(t, OutcomeOK, res.Outcome)
	assert.Equal(t, "10:01 bob: hi\n10:02 amy: hello", res.Text)
	assert.Equal(t, "2025-05-01~2025-05-27", gotTime)
	assert.Equal(t, "项目 群&A", gotTalker)
	assert.Equal(t, "ChatLogCombiner/1.0", gotUA)
	assert.NotContains(t, gotRawQuery, "项目")
	assert.NotContains(t, gotRawQuery, "&A")
}

func TestFetch_EmptyBody(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("  \n\t"))
	}))
	defer srv.Close()

	res := New(srv.URL).Fetch(context.Background(), "a", "2025-05-27", "2025-05-27")
	assert.Equal(t, Result{Text: EmptyPlaceholder, Outcome: OutcomeEmpty}, res)
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "talker not found\nmore detail", http.StatusNotFound)
	}))
	defer srv.Close()

	res := New(srv.URL).Fetch(context.Background(), "a", "2025-05-27", "2025-05-27")
	assert.Equal(t, OutcomeError, res.Outcome)
	assert.Equal(t, "[ERROR] HTTP 404: talker not found", res.Text)
}

func TestFetch_TransportError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := New(url).Fetch(context.Background(), "a", "2025-05-27", "2025-05-27")
	assert.Equal(t, OutcomeError, res.Outcome)
	assert.True(t, strings.HasPrefix(res.Text, ErrorMarker+" "), res.Text)
}

func TestFetch_Timeout(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	start := time.Now()
	res := New(srv.URL, WithTimeout(50*time.Millisecond)).Fetch(context.Background(), "a", "2025-05-27", "2025-05-27")
	require.Less(t, time.Since(start), time.Second)
	assert.Equal(t, OutcomeError, res.Outcome)
	assert.True(t, strings.HasPrefix(res.Text, "[ERROR] timeout"), res.Text)
}

func TestFetch_ContextCanceled(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("never read"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := New(srv.URL).Fetch(ctx, "a", "2025-05-27", "2025-05-27")
	assert.Equal(t, OutcomeError, res.Outcome)
	assert.True(t, strings.HasPrefix(res.Text, ErrorMarker), res.Text)
}

func TestFetch_NonSuccessBodyIsCapped(t *testing.T) {
	t.Parallel()
	page := "<html>" + strings.Repeat("<div>service unavailable</div>", 50) + "</html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(page))
	}))
	defer srv.Close()

	res := New(srv.URL).Fetch(context.Background(), "a", "2025-05-27", "2025-05-27")
	assert.Equal(t, OutcomeError, res.Outcome)
	assert.Equal(t, "[ERROR] HTTP 503: "+page[:maxDiagnostic]+"...", res.Text)
}

func TestFirstLine_CutsOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("群", 100) // 300 bytes
	got := firstLine(long)

	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len(got), maxDiagnostic+len("..."))
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "short", firstLine("short\nrest"))
}
