package screenshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"annotator/internal/annotate"
	"annotator/internal/annotate/geometry"
)

// Image describes a loaded reference screenshot.
type Image struct {
	Ref    string        `json:"ref"`
	Size   geometry.Size `json:"size"`
	Format string        `json:"format"`
	URL    string        `json:"url,omitempty"`
}

// Loader resolves a screenshot reference, either a name in the draft's store
// or an absolute http(s) URL, and probes its natural size. URLs are fetched
// only from the allowed hosts, redirects included.
type Loader struct {
	store    Store
	httpc    *http.Client
	maxBytes int64
	hosts    map[string]struct{}
}

// NewLoader builds a loader. remoteHosts lists hostnames (or host:port pairs)
// screenshots may be fetched from; with none, URL references are refused.
func NewLoader(store Store, timeout time.Duration, remoteHosts []string) *Loader {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	l := &Loader{
		store:    store,
		maxBytes: 32 << 20,
		hosts:    make(map[string]struct{}, len(remoteHosts)),
	}
	for _, h := range remoteHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			l.hosts[h] = struct{}{}
		}
	}
	l.httpc = &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return errors.New("too many redirects")
			}
			return l.checkHost(req.URL)
		},
	}
	return l
}

func (l *Loader) checkHost(u *url.URL) error {
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported screenshot scheme %q", ErrInvalidKey, u.Scheme)
	}
	if _, ok := l.hosts[strings.ToLower(u.Host)]; ok {
		return nil
	}
	if _, ok := l.hosts[strings.ToLower(u.Hostname())]; ok {
		return nil
	}
	return fmt.Errorf("%w: screenshot host %q is not allowed", ErrInvalidKey, u.Host)
}

func (l *Loader) Load(ctx context.Context, draftID, ref string) (Image, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Image{}, fmt.Errorf("%w: screenshot reference is required", ErrInvalidKey)
	}
	var (
		content []byte
		url     string
		err     error
	)
	if isRemote(ref) {
		content, err = l.fetch(ctx, ref)
		url = ref
	} else {
		content, err = l.store.Get(ctx, draftID, ref)
		if err == nil {
			url, err = l.store.GetURL(ctx, draftID, ref)
		}
	}
	if err != nil {
		return Image{}, err
	}
	size, format, err := Probe(content)
	if err != nil {
		return Image{}, err
	}
	return Image{Ref: ref, Size: size, Format: format, URL: url}, nil
}

func (l *Loader) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if err := l.checkHost(u); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build screenshot request: %w", err)
	}
	resp, err := l.httpc.Do(req)
	if errors.Is(err, ErrInvalidKey) {
		return nil, fmt.Errorf("fetch screenshot: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch screenshot: %w: %v", annotate.ErrNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("fetch screenshot: status %d: %w", resp.StatusCode, annotate.ErrNetwork)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read screenshot: %w: %v", annotate.ErrNetwork, err)
	}
	return body, nil
}

func isRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
