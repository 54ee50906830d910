package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/yashrajoria/inventory-dashboard/services/common/errors"
)

// maxErrorBody bounds how much of an upstream error body ends up in an error message.
const maxErrorBody = 512

// restClient is the shared HTTP plumbing of the typed service clients.
type restClient struct {
	service string
	baseURL string
	client  *http.Client
}

func newRESTClient(service, baseURL string, timeout time.Duration) restClient {
	return restClient{
		service: service,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (r restClient) do(ctx context.Context, method, path string, query url.Values, headers http.Header) (*http.Response, error) {
	u := r.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		for _, vv := range v {
			req.Header.Add(k, vv)
		}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrBadGateway, fmt.Errorf("%s request failed: %w", r.service, err))
	}
	return resp, nil
}

// getJSON issues a GET and decodes a 2xx body into out.
func (r restClient) getJSON(ctx context.Context, path string, out interface{}) error {
	resp, err := r.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := r.checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(apperrors.ErrBadGateway, fmt.Errorf("decode %s %s: %w", r.service, path, err))
	}
	return nil
}

func (r restClient) checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return apperrors.Upstream(r.service, resp.StatusCode, string(body))
}
