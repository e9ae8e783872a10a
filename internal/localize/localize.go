// Package localize copies the images a Markdown document references into
// its assets directory and points the document at the local copies.
package localize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/alnah/go-mdpress/internal/refs"
	"github.com/alnah/go-mdpress/internal/storage"
)

// Sentinel errors for localization.
var (
	ErrNoBaseDir    = errors.New("document has no base directory")
	ErrDownload     = errors.New("image download failed")
	ErrTooLarge     = errors.New("image exceeds maximum size")
	ErrNotAnImage   = errors.New("downloaded content is not an image")
	ErrMissingStore = errors.New("localize requires a store")
)

const defaultFetchTimeout = 30 * time.Second

// MaxImageSize caps a single download.
var MaxImageSize int64 = 20 << 20

// imagePattern matches Markdown image syntax; group 1 is the target.
var imagePattern = regexp.MustCompile(`!\[[^\]]*]\(([^)]+)\)`)

// Fetcher downloads a URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// HTTPFetcher fetches with an http.Client, nil meaning a client with a
// 30 second timeout.
type HTTPFetcher struct {
	Client *http.Client
}

// Fetch implements Fetcher.
func (f HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownload, err)
	}
	req.Header.Set("User-Agent", "go-mdpress")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: %s", ErrDownload, rawURL, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrDownload, err)
	}
	if int64(len(data)) > MaxImageSize {
		return nil, fmt.Errorf("%w: %s (max %d bytes)", ErrTooLarge, rawURL, MaxImageSize)
	}
	return data, nil
}

// Options configures Localize.
type Options struct {
	BaseDir    string // directory of the document; required
	AssetsDir  string // folder name under BaseDir
	SitePrefix string // resolves site-relative targets such as "/img/a.png"
	Store      storage.Store
	Fetcher    Fetcher
	Logger     *slog.Logger
}

// Failure records an image left pointing at its original target.
type Failure struct {
	URL string
	Err error
}

// Result is the rewritten document and what happened to each target.
type Result struct {
	Markdown   string
	Downloaded int
	Skipped    int
	Failures   []Failure
}

// Localize downloads every remote or site-relative image target in
// markdown into {BaseDir}/{AssetsDir} and rewrites the image references to
// "{AssetsDir}/{name}". Each distinct target is fetched once. Targets
// already under the assets directory, and relative targets when no site
// prefix is set, are left alone. A failed download leaves that target
// unchanged and does not stop the others.
func Localize(ctx context.Context, markdown string, opts Options) (*Result, error) {
	if opts.BaseDir == "" {
		return nil, ErrNoBaseDir
	}
	if opts.Store == nil {
		return nil, ErrMissingStore
	}
	if opts.Fetcher == nil {
		opts.Fetcher = HTTPFetcher{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	assetsDir := refs.NormalizeAssetsDir(opts.AssetsDir)
	if assetsDir == "" {
		assetsDir = "assets"
	}

	res := &Result{}
	rewritten := make(map[string]string)
	usedNames := make(map[string]bool)
	dirReady := false

	for _, m := range imagePattern.FindAllStringSubmatch(markdown, -1) {
		target := m[1]
		if _, seen := rewritten[target]; seen {
			continue
		}
		rewritten[target] = target

		source, ok := sourceURL(target, assetsDir, opts.SitePrefix)
		if !ok {
			res.Skipped++
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := opts.Fetcher.Fetch(ctx, source)
		if err == nil {
			err = checkImage(data)
		}
		if err != nil {
			opts.Logger.Warn("image not localized", "url", source, "error", err)
			res.Failures = append(res.Failures, Failure{URL: target, Err: err})
			continue
		}

		if !dirReady {
			if err := opts.Store.EnsureDir(ctx, filepath.Join(opts.BaseDir, assetsDir)); err != nil {
				return nil, err
			}
			dirReady = true
		}

		name := uniqueName(fileName(source, data), usedNames)
		if err := opts.Store.WriteBytes(ctx, filepath.Join(opts.BaseDir, assetsDir, name), data); err != nil {
			res.Failures = append(res.Failures, Failure{URL: target, Err: err})
			continue
		}

		rewritten[target] = assetsDir + "/" + name
		res.Downloaded++
		opts.Logger.Debug("image localized", "url", source, "file", name)
	}

	res.Markdown = imagePattern.ReplaceAllStringFunc(markdown, func(match string) string {
		sub := imagePattern.FindStringSubmatchIndex(match)
		target := match[sub[2]:sub[3]]
		local, ok := rewritten[target]
		if !ok || local == target {
			return match
		}
		return match[:sub[2]] + local + match[sub[3]:]
	})
	return res, nil
}

// sourceURL returns the URL to download for target, or false when the
// target stays as it is.
func sourceURL(target, assetsDir, sitePrefix string) (string, bool) {
	lower := strings.ToLower(target)
	switch {
	case strings.HasPrefix(target, assetsDir+"/"), strings.HasPrefix(target, "./"+assetsDir+"/"):
		return "", false
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return target, true
	case strings.HasPrefix(lower, "data:"):
		return "", false
	}

	prefix := strings.TrimSpace(sitePrefix)
	if prefix == "" {
		return "", false
	}
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}
	return strings.TrimRight(prefix, "/") + target, true
}

// fileName derives a file name from the last URL path segment, falling
// back to "image" plus the sniffed extension.
func fileName(source string, data []byte) string {
	var base string
	if u, err := url.Parse(source); err == nil {
		base = path.Base(u.Path)
	}
	if base == "" || base == "/" || base == "." {
		base = "image"
	}
	base = sanitizeName(base)
	if path.Ext(base) == "" {
		base += mimetype.Detect(data).Extension()
	}
	return base
}

// sanitizeName keeps names portable across filesystems.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return '_'
		}
		return r
	}, name)
}

// uniqueName suffixes name when another target of this run already took it.
func uniqueName(name string, used map[string]bool) string {
	candidate := name
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 2; used[candidate]; i++ {
		candidate = stem + "-" + strconv.Itoa(i) + ext
	}
	used[candidate] = true
	return candidate
}

func checkImage(data []byte) error {
	mt := mimetype.Detect(data)
	for m := mt; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") {
			return nil
		}
	}
	return fmt.Errorf("%w: detected %s", ErrNotAnImage, mt.String())
}
