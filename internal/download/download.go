// Package download fetches NetCDF granules listed by an NCEI directory
// index page.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

var ErrNoFiles = errors.New("no NetCDF files found at source URL")

type Config struct {
	URL       string
	OutputDir string
	Limit     int // 0: no limit
	Overwrite bool
	Workers   int
	Log       *logrus.Logger
	Client    *http.Client // nil: http.DefaultClient
}

type Report struct {
	Downloaded int
	Skipped    int
	Failed     int
	Total      int
}

// ListFiles scrapes the directory index at rawURL and returns the
// absolute URLs of every .nc link.
func ListFiles(ctx context.Context, client *http.Client, rawURL string) ([]string, error) {
	if client == nil {
		client = http.DefaultClient
	}
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("bad source URL %s: %w", rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch file listing: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file listing returned %s", resp.Status)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file listing: %w", err)
	}

	var urls []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" || !strings.HasSuffix(attr.Val, ".nc") {
					continue
				}
				if ref, err := url.Parse(attr.Val); err == nil {
					urls = append(urls, base.ResolveReference(ref).String())
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return urls, nil
}

// Fetch downloads the listed granules with a bounded worker group. An
// individual failure is logged and counted but never aborts the other
// downloads; partially written files are removed.
func Fetch(ctx context.Context, cfg Config) (*Report, error) {
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}

	urls, err := ListFiles(ctx, client, cfg.URL)
	if err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFiles, cfg.URL)
	}
	if cfg.Limit > 0 && cfg.Limit < len(urls) {
		log.Infof("limiting download to %d of %d files", cfg.Limit, len(urls))
		urls = urls[:cfg.Limit]
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", cfg.OutputDir, err)
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	var downloaded, skipped, failed atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(workers)
	for _, u := range urls {
		u := u
		g.Go(func() error {
			switch err := downloadFile(ctx, client, u, cfg.OutputDir, cfg.Overwrite); {
			case errors.Is(err, errExists):
				skipped.Add(1)
				log.Infof("already downloaded, skipping %s", fileName(u))
			case err != nil:
				failed.Add(1)
				log.Errorf("download failed for %s: %v", fileName(u), err)
			default:
				downloaded.Add(1)
				log.Infof("downloaded %s", fileName(u))
			}
			return nil
		})
	}
	g.Wait()

	return &Report{
		Downloaded: int(downloaded.Load()),
		Skipped:    int(skipped.Load()),
		Failed:     int(failed.Load()),
		Total:      len(urls),
	}, nil
}

var errExists = errors.New("file already exists")

func downloadFile(ctx context.Context, client *http.Client, fileURL, outputDir string, overwrite bool) error {
	name := fileName(fileURL)
	outPath := filepath.Join(outputDir, name)
	if _, err := os.Stat(outPath); err == nil && !overwrite {
		return errExists
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s", resp.Status)
	}

	file, err := os.Create(outPath)
	if err != nil {
		return err
	}

	bar := progressbar.DefaultBytes(resp.ContentLength, name)
	_, err = io.Copy(io.MultiWriter(file, bar), resp.Body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(outPath)
		return err
	}
	return nil
}

func fileName(fileURL string) string {
	name := path.Base(fileURL)
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return name
}
