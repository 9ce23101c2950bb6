package robots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestParse_GroupsAgents(t *testing.T) {
	r := Parse("# comment\nUser-agent: a\nUser-agent: b\nDisallow: /x\n\nUser-agent: *\nAllow: /\n")
	if len(r.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %+v", r.Groups)
	}
	if len(r.Groups[0].Agents) != 2 || r.Groups[0].Disallow[0] != "/x" {
		t.Fatalf("unexpected first group %+v", r.Groups[0])
	}
}

func TestIsAllowed(t *testing.T) {
	r := Parse(`User-agent: *
Disallow: /private
Allow: /private/open
Disallow: /*.pdf$

User-agent: gosummarize
Disallow: /nobots
`)
	cases := []struct {
		ua, path string
		want     bool
	}{
		{"other/1.0", "/", true},
		{"other/1.0", "/private/a", false},
		{"other/1.0", "/private/open/page", true},
		{"other/1.0", "/doc.pdf", false},
		{"other/1.0", "/doc.pdf?x=1", true},
		{"gosummarize/0.1 (+https://example.org)", "/private/a", true},
		{"gosummarize/0.1", "/nobots/page", false},
	}
	for _, c := range cases {
		if got := r.IsAllowed(c.ua, c.path); got != c.want {
			t.Errorf("IsAllowed(%q, %q) = %v, want %v", c.ua, c.path, got, c.want)
		}
	}
}

func TestIsAllowed_EmptyDisallowAllowsAll(t *testing.T) {
	r := Parse("User-agent: *\nDisallow:\n")
	if !r.IsAllowed("x", "/anything") {
		t.Fatal("empty disallow must allow")
	}
}

func TestChecker_FetchesOncePerHost(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n"))
	}))
	t.Cleanup(srv.Close)

	c := &Checker{HTTPClient: srv.Client(), UserAgent: "gosummarize-test/1.0"}
	ctx := context.Background()
	ok, err := c.Allowed(ctx, srv.URL+"/public/page")
	if err != nil || !ok {
		t.Fatalf("public page: ok=%v err=%v", ok, err)
	}
	ok, err = c.Allowed(ctx, srv.URL+"/private/page")
	if err != nil || ok {
		t.Fatalf("private page: ok=%v err=%v", ok, err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("robots.txt fetched %d times, want 1", n)
	}
}

func TestChecker_MissingRobotsAllows(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	c := &Checker{HTTPClient: srv.Client()}
	ok, err := c.Allowed(context.Background(), srv.URL+"/anything")
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
}

func TestChecker_ServerErrorAllowsWithError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	c := &Checker{HTTPClient: srv.Client()}
	ok, err := c.Allowed(context.Background(), srv.URL+"/page")
	if !ok || err == nil {
		t.Fatalf("expected allow with error, got ok=%v err=%v", ok, err)
	}
}
