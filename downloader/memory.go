package downloader

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// Keeps downloaded documents in memory for GetOptions.CacheTTL.
//
// Entries are keyed on URL and request headers, since timetable
// sources commonly vary the document by API key or Accept-Language.
type MemoryDownloader struct {
	mutex   sync.Mutex
	entries map[string]cachedDocument

	TimeNow func() time.Time
}

type cachedDocument struct {
	body    []byte
	expires time.Time
}

func NewMemoryDownloader() *MemoryDownloader {
	return &MemoryDownloader{
		entries: map[string]cachedDocument{},
		TimeNow: time.Now,
	}
}

func (d *MemoryDownloader) Get(
	ctx context.Context,
	url string,
	headers map[string]string,
	options GetOptions,
) ([]byte, error) {
	caching := options.Cache && options.CacheTTL > 0
	key := cacheKey(url, headers)

	if caching {
		if body, found := d.lookup(key); found {
			return body, nil
		}
	}

	body, err := HTTPGet(ctx, url, headers, options)
	if err != nil {
		return nil, err
	}

	if caching {
		d.mutex.Lock()
		d.entries[key] = cachedDocument{
			body:    body,
			expires: d.TimeNow().Add(options.CacheTTL),
		}
		d.mutex.Unlock()
	}

	return body, nil
}

// Drops every cached copy of url, whatever headers it was fetched
// with.
func (d *MemoryDownloader) Forget(url string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	for key := range d.entries {
		if key == url || strings.HasPrefix(key, url+"\n") {
			delete(d.entries, key)
		}
	}
}

func (d *MemoryDownloader) lookup(key string) ([]byte, bool) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	entry, found := d.entries[key]
	if !found {
		return nil, false
	}
	if !entry.expires.After(d.TimeNow()) {
		delete(d.entries, key)
		return nil, false
	}
	return entry.body, true
}

// URL followed by the headers in key order, one per line.
func cacheKey(url string, headers map[string]string) string {
	if len(headers) == 0 {
		return url
	}

	lines := make([]string, 0, len(headers))
	for name, value := range headers {
		lines = append(lines, strings.ToLower(name)+": "+value)
	}
	sort.Strings(lines)

	return url + "\n" + strings.Join(lines, "\n")
}
