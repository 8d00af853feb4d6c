package entity

import (
	"context"
	"fmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const buildPage = `<html><body>
<p>LatestRevision: <b>48347</b></p>
<p>Date: </b> <i>2024-02-01 10:11</i></p>
</body></html>`

func TestParseLatestVersion(t *testing.T) {
	t.Run("extracts the revision and date with whitespace removed", func(t *testing.T) {
		latest, err := parseLatestVersion(buildPage)
		require.NoError(t, err)

		assert.Equal(t, "48347", latest.Revision)
		assert.Equal(t, "2024-02-0110:11", latest.Date)
	})

	t.Run("returns an error if the page has no revision", func(t *testing.T) {
		_, err := parseLatestVersion("<html></html>")
		assert.ErrorIs(t, err, ErrVersionNotFound)
	})
}

func TestHTTPVersionSource_Latest(t *testing.T) {
	t.Run("fetches and parses the build page", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, buildPage)
		}))
		defer srv.Close()

		latest, err := NewHTTPVersionSource(srv.URL).Latest(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "48347", latest.Revision)
	})

	t.Run("retries failed requests", func(t *testing.T) {
		var calls int32

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			fmt.Fprint(w, buildPage)
		}))
		defer srv.Close()

		latest, err := NewHTTPVersionSource(srv.URL).Latest(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "48347", latest.Revision)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("defaults to the JDownloader build page", func(t *testing.T) {
		assert.Equal(t, DefaultLatestVersionURL, NewHTTPVersionSource("").URL)
	})
}
