package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"annotator/internal/annotate"
)

// HTTPSource reads catalogs from the experiment backend's REST API. It is the
// live-catalog mode of the screen.
type HTTPSource struct {
	BaseURL string
	Token   string
	httpc   *http.Client
}

func NewHTTPSource(baseURL, token string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPSource{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Token:   strings.TrimSpace(token),
		httpc:   &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Categories(ctx context.Context) ([]Category, error) {
	var out []Category
	err := s.list(ctx, "/categories/", "", &out)
	return out, err
}

func (s *HTTPSource) GUIComponents(ctx context.Context, category string) ([]GUIComponent, error) {
	var out []GUIComponent
	err := s.list(ctx, "/gui-components/", category, &out)
	return out, err
}

func (s *HTTPSource) Functions(ctx context.Context, category string) ([]Function, error) {
	var out []Function
	err := s.list(ctx, "/variability-functions/", category, &out)
	return out, err
}

func (s *HTTPSource) Params(ctx context.Context) ([]Param, error) {
	var out []Param
	err := s.list(ctx, "/params/", "", &out)
	return out, err
}

// list accepts either a bare JSON array or a paginated {"results": [...]}
// envelope.
func (s *HTTPSource) list(ctx context.Context, path, category string, out any) error {
	u := s.BaseURL + path
	if category != "" {
		u += "?" + url.Values{"category": {category}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if s.Token != "" {
		req.Header.Set("Authorization", "Token "+s.Token)
	}
	resp, err := s.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w: %v", path, annotate.ErrNetwork, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read %s: %w: %v", path, annotate.ErrNetwork, err)
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("GET %s: status %d: %w", path, resp.StatusCode, annotate.ErrNetwork)
	}
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '{' {
		var page struct {
			Results json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		body = page.Results
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
