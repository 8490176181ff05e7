package enrich

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"ainews/internal/database"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedArticle(t *testing.T, db *database.DB, sourceID, url string) int64 {
	t.Helper()
	a := database.Article{
		Source:    "websites",
		SourceID:  &sourceID,
		Title:     "Post " + sourceID,
		URL:       url,
		FetchedAt: time.Now(),
	}
	id, err := db.InsertArticle(&a)
	if err != nil {
		t.Fatalf("InsertArticle: %v", err)
	}
	return id
}

const articlePage = `<!DOCTYPE html>
<html><head><title>Scaling inference</title></head><body>
<article>
<h1>Scaling inference</h1>
<p>We describe how batching and paged attention let a single node serve many
concurrent sessions. Throughput grows nearly linearly until memory bandwidth
becomes the bottleneck, at which point further gains require quantization.</p>
<p>The second half of this post covers scheduling policies and how preemption
interacts with streaming responses under heavy load in production systems.</p>
</article>
</body></html>`

func TestRunFetchesContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(articlePage))
	}))
	defer server.Close()

	db := openTestDB(t)
	id := seedArticle(t, db, "p1", server.URL+"/post")

	result := New(db, 5*time.Second).Run()
	if result.Fetched != 1 || result.Failed != 0 {
		t.Fatalf("result = %+v", result)
	}

	a, _ := db.GetArticleByID(id)
	if a.Content == nil || !strings.Contains(*a.Content, "paged attention") {
		t.Errorf("content not extracted: %v", a.Content)
	}
	if !a.ContentFetched {
		t.Error("content_fetched flag not set")
	}

	// Second pass finds nothing to do.
	if r := New(db, 5*time.Second).Run(); r.Fetched != 0 || r.Failed != 0 {
		t.Errorf("second pass = %+v", r)
	}
}

func TestRunFailureMarksAttempt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	db := openTestDB(t)
	id := seedArticle(t, db, "p1", server.URL+"/gone")

	result := New(db, 5*time.Second).Run()
	if result.Failed != 1 {
		t.Fatalf("result = %+v", result)
	}

	a, _ := db.GetArticleByID(id)
	if a.Content != nil {
		t.Error("content should stay empty on failure")
	}
	if !a.ContentFetched {
		t.Error("failed fetch must still mark the attempt")
	}
}

func TestRunSkipsDomainAfterFirstError(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	db := openTestDB(t)
	seedArticle(t, db, "p1", server.URL+"/one")
	seedArticle(t, db, "p2", server.URL+"/two")

	result := New(db, 5*time.Second).Run()
	if result.Failed != 2 {
		t.Fatalf("result = %+v", result)
	}
	if requests != 1 {
		t.Errorf("expected 1 request to the failing domain, got %d", requests)
	}

	// Both articles are marked so they are not retried next pass.
	needing, _ := db.GetNeedingContent(10)
	if len(needing) != 0 {
		t.Errorf("%d articles still pending", len(needing))
	}
}

func TestRunTruncatesContentOnRuneBoundary(t *testing.T) {
	// A long CJK body overflows the storage cap with multi-byte runes;
	// the stored text must stay valid UTF-8.
	body := "<!DOCTYPE html><html><head><title>长文</title></head><body><article><h1>长文</h1><p>" +
		strings.Repeat("模型推理的吞吐量随批处理规模增长。", 300) +
		"</p></article></body></html>"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()

	db := openTestDB(t)
	id := seedArticle(t, db, "p1", server.URL+"/long")

	result := New(db, 5*time.Second).Run()
	if result.Fetched != 1 {
		t.Fatalf("result = %+v", result)
	}

	a, _ := db.GetArticleByID(id)
	if a.Content == nil {
		t.Fatal("content missing")
	}
	if !utf8.ValidString(*a.Content) {
		t.Error("stored content contains a split rune")
	}
	if n := len([]rune(*a.Content)); n > maxContentLen {
		t.Errorf("content is %d runes, cap is %d", n, maxContentLen)
	}
}
