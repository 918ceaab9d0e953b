package fixture

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
)

// FetchFunc receives the result of one fetch. It is called exactly once per
// Fetch, possibly before Fetch returns and possibly on another goroutine.
type FetchFunc func(name string, data []byte, err error)

// Source delivers fixture bytes by name.
type Source interface {
	Fetch(ctx context.Context, name string, done FetchFunc)
}

// DirSource reads fixtures from a local directory. It completes
// synchronously, before Fetch returns.
type DirSource struct {
	Root string
}

// Fetch implements Source.
func (s DirSource) Fetch(ctx context.Context, name string, done FetchFunc) {
	data, err := os.ReadFile(filepath.Join(s.Root, filepath.FromSlash(name)))
	done(name, data, err)
}

// HTTPSource fetches fixtures relative to a base URL. Each fetch completes
// on its own goroutine.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

// Fetch implements Source.
func (s HTTPSource) Fetch(ctx context.Context, name string, done FetchFunc) {
	go func() {
		data, err := s.get(ctx, name)
		done(name, data, err)
	}()
}

func (s HTTPSource) get(ctx context.Context, name string) ([]byte, error) {
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	u.Path = path.Join(u.Path, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", u.String(), resp.Status)
	}
	return io.ReadAll(resp.Body)
}
