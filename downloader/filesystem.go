package downloader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
)

// Reads documents from local files, given as plain paths or file://
// URLs. http(s) URLs are passed on to Remote.
type Filesystem struct {
	Remote Downloader
}

func NewFilesystem() *Filesystem {
	return &Filesystem{Remote: NewMemoryDownloader()}
}

func (f *Filesystem) Get(
	ctx context.Context,
	location string,
	headers map[string]string,
	options GetOptions,
) ([]byte, error) {

	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		if f.Remote == nil {
			return nil, fmt.Errorf("no remote downloader for %s", location)
		}
		return f.Remote.Get(ctx, location, headers, options)
	}

	path := location
	if strings.HasPrefix(location, "file://") {
		u, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", location, err)
		}
		path = u.Path
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	if options.MaxSize > 0 && info.Size() > int64(options.MaxSize) {
		return nil, fmt.Errorf("document exceeds %d bytes", options.MaxSize)
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading: %w", err)
	}

	return body, nil
}
