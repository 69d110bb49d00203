package urls

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// List is an ordered set of URLs. It keeps the first occurrence of every
// normalized URL, in input order.
type List struct {
	items   []string
	visited map[string]bool
}

// NewList creates an empty List.
func NewList() *List {
	return &List{
		visited: make(map[string]bool),
	}
}

// Add appends a URL unless its normalized form has been seen before.
// It reports whether the URL was added.
func (l *List) Add(rawURL string) bool {
	key := NormalizeURL(rawURL)
	if l.visited[key] {
		return false
	}
	l.visited[key] = true
	l.items = append(l.items, rawURL)
	return true
}

// Len returns the number of unique URLs.
func (l *List) Len() int {
	return len(l.items)
}

// All returns the URLs in insertion order.
func (l *List) All() []string {
	return l.items
}

// ReadList parses a URL list: one URL per line, blank lines and lines
// starting with "#" ignored. Lines that are not absolute URLs or that point
// to static assets are returned as skipped.
func ReadList(r io.Reader) (list *List, skipped []string, err error) {
	list = NewList()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !IsAbsolute(line) || IsStaticAsset(line) {
			skipped = append(skipped, line)
			continue
		}
		list.Add(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading URL list: %w", err)
	}
	return list, skipped, nil
}
