package entity

import (
	"context"
	"errors"
	"fmt"
	"github.com/shimmeringbee/retry"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const DefaultLatestVersionURL = "https://svn.jdownloader.org/build.php"

const (
	DefaultVersionTimeout = 10 * time.Second
	DefaultVersionRetries = 3
)

var ErrVersionNotFound = errors.New("latest version not found in build page")

var latestVersionRegex = regexp.MustCompile(`.*LatestRevision:[^\d+]+(\d+)[^\d+]+Date:[^\d+]+<[^>]+>([^<]+).*`)

type LatestVersion struct {
	Revision string
	Date     string
}

type VersionSource interface {
	Latest(context.Context) (LatestVersion, error)
}

// HTTPVersionSource scrapes the latest core revision from the JDownloader build page.
type HTTPVersionSource struct {
	URL    string
	Client *http.Client
}

func NewHTTPVersionSource(url string) *HTTPVersionSource {
	if len(url) == 0 {
		url = DefaultLatestVersionURL
	}

	return &HTTPVersionSource{URL: url, Client: http.DefaultClient}
}

func (s *HTTPVersionSource) Latest(pctx context.Context) (LatestVersion, error) {
	var body string

	if err := retry.Retry(pctx, DefaultVersionTimeout, DefaultVersionRetries, func(ctx context.Context) error {
		b, err := s.fetch(ctx)
		if err == nil {
			body = b
		}
		return err
	}); err != nil {
		return LatestVersion{}, err
	}

	return parseLatestVersion(body)
}

func (s *HTTPVersionSource) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status from %s: %d", s.URL, resp.StatusCode)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

func parseLatestVersion(body string) (LatestVersion, error) {
	stripped := strings.Join(strings.Fields(body), "")

	match := latestVersionRegex.FindStringSubmatch(stripped)
	if match == nil {
		return LatestVersion{}, ErrVersionNotFound
	}

	return LatestVersion{Revision: match[1], Date: match[2]}, nil
}
