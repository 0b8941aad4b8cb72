package httpclient

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client is the minimal HTTP surface used by fetchers, the crawler and publishers.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error)
	GetWithQuery(ctx context.Context, url string, query map[string]string, headers map[string]string) (*resty.Response, error)
	Do(ctx context.Context, method, url string, body []byte, headers map[string]string) (*resty.Response, error)
	// GetLimited reads at most limit bytes of the response body and reports
	// whether more remained on the wire.
	GetLimited(ctx context.Context, url string, headers map[string]string, limit int64) (LimitedResponse, error)
}

// LimitedResponse is the status and capped body of a GetLimited call.
type LimitedResponse struct {
	StatusCode int
	Body       []byte
	Truncated  bool
}

type restyClient struct {
	r *resty.Client
}

// NewRestyClient returns a Client backed by resty. A zero timeout leaves the
// request bounded only by its context.
func NewRestyClient(timeout time.Duration) Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	}
	return &restyClient{r: r}
}

// FromResty wraps a preconfigured resty client.
func FromResty(r *resty.Client) Client {
	if r == nil {
		r = resty.New()
	}
	return &restyClient{r: r}
}

func (c *restyClient) Get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error) {
	return c.GetWithQuery(ctx, url, nil, headers)
}

func (c *restyClient) GetWithQuery(ctx context.Context, url string, query map[string]string, headers map[string]string) (*resty.Response, error) {
	req := c.r.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	return resp, nil
}

func (c *restyClient) Do(ctx context.Context, method, url string, body []byte, headers map[string]string) (*resty.Response, error) {
	req := c.r.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	return resp, nil
}

func (c *restyClient) GetLimited(ctx context.Context, url string, headers map[string]string, limit int64) (LimitedResponse, error) {
	req := c.r.R().SetContext(ctx).SetDoNotParseResponse(true)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(url)
	if err != nil {
		return LimitedResponse{}, fmt.Errorf("GET %s: %w", url, err)
	}
	raw := resp.RawBody()
	if raw == nil {
		return LimitedResponse{StatusCode: resp.StatusCode()}, nil
	}
	defer raw.Close()

	body, err := io.ReadAll(io.LimitReader(raw, limit+1))
	if err != nil {
		return LimitedResponse{}, fmt.Errorf("GET %s: read body: %w", url, err)
	}
	out := LimitedResponse{StatusCode: resp.StatusCode(), Body: body}
	if int64(len(body)) > limit {
		out.Body = body[:limit]
		out.Truncated = true
	}
	return out, nil
}
