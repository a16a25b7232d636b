package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/ibad-al-rahman/azan/internal/config"
)

// VCardFetcher retrieves the address book of places from a remote source.
type VCardFetcher interface {
	Fetch(ctx context.Context, url, user, pass string) (io.ReadCloser, error)
}

// StatusError is returned by HTTPFetcher when the server answers with
// anything but 200 OK.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", config.ErrFetchStatus, e.Code, e.Status)
}

// HTTPFetcher downloads vCards over HTTP(S), with optional Basic Auth. This
// covers CardDAV collection exports and plain WebDAV files.
type HTTPFetcher struct {
	Client *http.Client
}

func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		Client: &http.Client{Timeout: config.HTTPTimeout},
	}
}

// Fetch opens the vCard stream at targetURL. The returned body is capped at
// config.MaxHTTPResponseSize bytes.
func (f *HTTPFetcher) Fetch(ctx context.Context, targetURL, user, pass string) (io.ReadCloser, error) {
	safeURL, err := redactURL(targetURL)
	if err != nil {
		return nil, err
	}
	log := slog.With(
		slog.String(config.LogKeyComponent, config.CompFetcher),
		slog.String(config.LogKeyURL, safeURL),
	)
	log.DebugContext(ctx, config.MsgFetchStart)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}
	req.Header.Set(config.HeaderUserAgent, config.UserAgent)
	req.Header.Set(config.HeaderAccept, config.MimeVCard)
	if user != "" || pass != "" {
		req.SetBasicAuth(user, pass)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		log.WarnContext(ctx, config.MsgFetchBadCode, slog.Int(config.LogKeyStatus, resp.StatusCode))
		return nil, &StatusError{Code: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}

	log.InfoContext(ctx, config.MsgFetchOK, slog.Int64(config.LogKeyLength, resp.ContentLength))

	return struct {
		io.Reader
		io.Closer
	}{io.LimitReader(resp.Body, config.MaxHTTPResponseSize), resp.Body}, nil
}

// redactURL validates target and returns it without query string or
// credentials, fit for logs.
func redactURL(target string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}
	if u.Scheme != config.SchemeHTTP && u.Scheme != config.SchemeHTTPS {
		return "", fmt.Errorf("%s: %q", config.ErrProtocol, u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New(config.ErrInvalidURL)
	}
	return u.Scheme + "://" + u.Host + u.Path, nil
}
