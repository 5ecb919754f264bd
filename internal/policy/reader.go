package policy

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"gopkg.in/yaml.v3"
)

// Reader yields the current policy snapshot. Callers fetch it once per
// request or sweep iteration.
type Reader interface {
	Current(ctx context.Context) (Configuration, error)
}

// Source writes the values it holds over cfg, leaving unset keys alone.
type Source interface {
	Apply(ctx context.Context, cfg *Configuration) error
}

// Static is a fixed configuration, used in tests and as a fallback.
type Static Configuration

func (s Static) Current(context.Context) (Configuration, error) {
	return Configuration(s), nil
}

// FileSource reads YAML policy defaults from disk. A missing file is not an error.
type FileSource struct {
	Path string
}

func (f FileSource) Apply(_ context.Context, cfg *Configuration) error {
	if f.Path == "" {
		return nil
	}
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read policy file failed: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse policy file failed: %w", err)
	}
	return nil
}

type layered struct {
	sources []Source
}

// Layered starts from Defaults and applies each source in order, so later
// sources win.
func Layered(sources ...Source) Reader {
	return &layered{sources: sources}
}

func (l *layered) Current(ctx context.Context) (Configuration, error) {
	cfg := Defaults()
	for _, s := range l.sources {
		if err := s.Apply(ctx, &cfg); err != nil {
			return Configuration{}, err
		}
	}
	return cfg, nil
}

const cacheKey = "current"

// CachedReader memoizes another Reader for a short TTL.
type CachedReader struct {
	next  Reader
	cache *expirable.LRU[string, Configuration]
}

func NewCachedReader(next Reader, ttl time.Duration) *CachedReader {
	return &CachedReader{
		next:  next,
		cache: expirable.NewLRU[string, Configuration](1, nil, ttl),
	}
}

func (c *CachedReader) Current(ctx context.Context) (Configuration, error) {
	if cfg, ok := c.cache.Get(cacheKey); ok {
		return cfg, nil
	}
	cfg, err := c.next.Current(ctx)
	if err != nil {
		return Configuration{}, err
	}
	c.cache.Add(cacheKey, cfg)
	return cfg, nil
}

// Invalidate drops the cached snapshot so the next read goes to the source.
func (c *CachedReader) Invalidate() {
	c.cache.Remove(cacheKey)
}
