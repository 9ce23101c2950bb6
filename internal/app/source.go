package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gosummarize/internal/extract"
	"github.com/hyperifyio/gosummarize/internal/fetch"
)

// source is a loaded document ready for sentence splitting.
type source struct {
	// Name is the URL, file path or "stdin".
	Name string
	Doc  extract.Document
}

// maxInputBytes caps local and stdin input the same way fetch caps bodies.
const maxInputBytes = fetch.DefaultMaxBodyBytes

func (a *App) loadSource(ctx context.Context) (source, error) {
	ex, err := extract.ForMode(extract.Mode(a.cfg.ExtractMode))
	if err != nil {
		return source{}, err
	}
	if u := strings.TrimSpace(a.cfg.URL); u != "" {
		page, err := a.fetcher.Get(ctx, u)
		if err != nil {
			return source{}, fmt.Errorf("fetch: %w", err)
		}
		log.Info().Str("url", page.URL).Int("bytes", len(page.Body)).Bool("cached", page.FromCache).Msg("fetched page")
		if !fetch.IsHTML(page.ContentType) {
			return source{Name: page.URL, Doc: extract.PlainText(page.Body)}, nil
		}
		doc, err := ex.Extract(page.Body, page.URL)
		if err != nil {
			return source{}, fmt.Errorf("extract: %w", err)
		}
		return source{Name: page.URL, Doc: doc}, nil
	}

	path := strings.TrimSpace(a.cfg.InputPath)
	var (
		body []byte
		name = path
	)
	if path == "-" {
		name = "stdin"
		body, err = io.ReadAll(io.LimitReader(a.stdin, maxInputBytes+1))
	} else {
		var f *os.File
		f, err = os.Open(path)
		if err == nil {
			body, err = io.ReadAll(io.LimitReader(f, maxInputBytes+1))
			_ = f.Close()
		}
	}
	if err != nil {
		return source{}, fmt.Errorf("read input: %w", err)
	}
	if len(body) > maxInputBytes {
		return source{}, fmt.Errorf("read input: %w", fetch.ErrBodyTooLarge)
	}
	if isHTMLPath(path) || looksLikeHTML(body) {
		doc, err := ex.Extract(body, "")
		if err != nil {
			return source{}, fmt.Errorf("extract: %w", err)
		}
		return source{Name: name, Doc: doc}, nil
	}
	return source{Name: name, Doc: extract.PlainText(body)}, nil
}

func isHTMLPath(p string) bool {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	return false
}

func looksLikeHTML(b []byte) bool {
	head := strings.ToLower(strings.TrimSpace(string(b[:min(len(b), 512)])))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}
