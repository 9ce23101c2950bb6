// Package robots decides whether a page may be fetched under the site's
// robots.txt.
package robots

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"
)

// maxRobotsBytes caps how much of a robots.txt is read.
const maxRobotsBytes = 512 << 10

// Rules are the parsed groups of one robots.txt.
type Rules struct {
	Groups []Group
}

// Group is the set of directives following one or more User-agent lines.
type Group struct {
	Agents   []string
	Allow    []string
	Disallow []string
}

// Checker fetches robots.txt once per host and answers Allowed queries.
type Checker struct {
	HTTPClient *http.Client
	UserAgent  string

	mu    sync.Mutex
	rules map[string]Rules
}

// Allowed reports whether pageURL may be fetched. A missing robots.txt (any
// 4xx) allows everything. Network failures and 5xx answers allow the fetch
// and are returned as the error for the caller to log.
func (c *Checker) Allowed(ctx context.Context, pageURL string) (bool, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false, fmt.Errorf("parse url: %w", err)
	}
	origin := strings.ToLower(u.Scheme) + "://" + u.Host
	rules, err := c.rulesFor(ctx, origin)
	if err != nil {
		return true, err
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return rules.IsAllowed(c.UserAgent, path), nil
}

func (c *Checker) rulesFor(ctx context.Context, origin string) (Rules, error) {
	c.mu.Lock()
	if r, ok := c.rules[origin]; ok {
		c.mu.Unlock()
		return r, nil
	}
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return Rules{}, fmt.Errorf("new request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Rules{}, err
	}
	defer resp.Body.Close()

	var rules Rules
	switch {
	case resp.StatusCode >= 500:
		return Rules{}, fmt.Errorf("robots.txt: unexpected status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		// no robots.txt: everything allowed
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
		if err != nil {
			return Rules{}, fmt.Errorf("read robots.txt: %w", err)
		}
		rules = Parse(string(data))
	}

	c.mu.Lock()
	if c.rules == nil {
		c.rules = make(map[string]Rules)
	}
	c.rules[origin] = rules
	c.mu.Unlock()
	return rules, nil
}

// Parse reads robots.txt text. Unknown directives are ignored.
func Parse(text string) Rules {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var groups []Group
	var cur Group
	flush := func() {
		if len(cur.Agents) > 0 {
			groups = append(groups, cur)
		}
		cur = Group{}
	}
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)
		switch key {
		case "user-agent", "useragent":
			// consecutive agent lines share one group
			if len(cur.Allow) > 0 || len(cur.Disallow) > 0 {
				flush()
			}
			cur.Agents = append(cur.Agents, strings.ToLower(val))
		case "allow":
			cur.Allow = append(cur.Allow, val)
		case "disallow":
			cur.Disallow = append(cur.Disallow, val)
		}
	}
	flush()
	return Rules{Groups: groups}
}

// IsAllowed evaluates path (with optional query) for userAgent. The most
// specific matching agent group applies, with "*" as the fallback. Within it
// the longest matching pattern wins and Allow wins ties. No match allows.
func (r Rules) IsAllowed(userAgent, path string) bool {
	g := r.group(userAgent)
	if g == nil {
		return true
	}
	best, allow := -1, true
	consider := func(patterns []string, isAllow bool) {
		for _, p := range patterns {
			if p == "" || !matches(p, path) {
				continue
			}
			score := len(strings.ReplaceAll(strings.TrimSuffix(p, "$"), "*", ""))
			if score > best || (score == best && isAllow && !allow) {
				best, allow = score, isAllow
			}
		}
	}
	consider(g.Disallow, false)
	consider(g.Allow, true)
	return allow
}

func (r Rules) group(userAgent string) *Group {
	ua := strings.ToLower(userAgent)
	// product token only: "gosummarize/1.0 (+url)" -> "gosummarize"
	if i := strings.IndexAny(ua, "/ "); i > 0 {
		ua = ua[:i]
	}
	var best *Group
	bestScore := -1
	for i := range r.Groups {
		for _, a := range r.Groups[i].Agents {
			score := -1
			switch {
			case a == "*":
				score = 0
			case a != "" && strings.Contains(ua, a):
				score = len(a)
			}
			if score > bestScore {
				best, bestScore = &r.Groups[i], score
			}
		}
	}
	return best
}

// matches supports '*' wildcards and a trailing '$' end anchor; patterns are
// anchored at the start of the path.
func matches(pattern, path string) bool {
	anchored := strings.HasSuffix(pattern, "$")
	pattern = strings.TrimSuffix(pattern, "$")
	if !strings.Contains(pattern, "*") {
		if anchored {
			return path == pattern
		}
		return strings.HasPrefix(path, pattern)
	}
	parts := strings.Split(pattern, "*")
	for i := range parts {
		parts[i] = regexp.QuoteMeta(parts[i])
	}
	expr := "^" + strings.Join(parts, ".*")
	if anchored {
		expr += "$"
	}
	return regexp.MustCompile(expr).MatchString(path)
}
