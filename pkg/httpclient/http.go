package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

const defaultTimeout = 30 * time.Second

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrNilRequest = errors.New("request param is nil")

type IClient interface {
	// DoHTTPRequest fails on any status >= 400 and decodes a JSON body into
	// RequestParam.Response when it is set.
	DoHTTPRequest(ctx context.Context, requestParam *RequestParam) error
	// Forward returns the upstream reply whatever its status.
	Forward(ctx context.Context, requestParam *RequestParam) (*RawResponse, error)
}

type RequestParam struct {
	RequestURI string
	Method     string
	Header     map[string]string
	Query      url.Values
	// Body may be nil, an io.Reader, a []byte, a string or any value that is
	// sent as JSON.
	Body     interface{}
	Response interface{}

	Timeout time.Duration
}

type RawResponse struct {
	StatusCode  int
	ContentType string
	Header      http.Header
	Body        []byte
}

type HTTPClient struct {
	client *http.Client
}

type Option func(*HTTPClient)

func WithTimeout(timeout time.Duration) Option {
	return func(c *HTTPClient) {
		c.client.Timeout = timeout
	}
}

func NewHTTPClient(opts ...Option) IClient {
	c := &HTTPClient{
		client: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) DoHTTPRequest(ctx context.Context, requestParam *RequestParam) error {
	resp, err := c.Forward(ctx, requestParam)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("HTTP request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(resp.Body)))
	}

	if requestParam.Response == nil || len(resp.Body) == 0 {
		return nil
	}

	if err := json.Unmarshal(resp.Body, requestParam.Response); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (c *HTTPClient) Forward(ctx context.Context, requestParam *RequestParam) (*RawResponse, error) {
	if requestParam == nil {
		return nil, ErrNilRequest
	}

	if requestParam.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, requestParam.Timeout)
		defer cancel()
	}

	body, err := encodeBody(requestParam.Body)
	if err != nil {
		return nil, err
	}

	uri, err := buildURI(requestParam.RequestURI, requestParam.Query)
	if err != nil {
		return nil, err
	}

	method := requestParam.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, uri, body)
	if err != nil {
		return nil, err
	}

	if isJSONBody(requestParam.Body) {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range requestParam.Header {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &RawResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Header:      resp.Header,
		Body:        data,
	}, nil
}

func encodeBody(body interface{}) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case io.Reader:
		return b, nil
	case []byte:
		return bytes.NewReader(b), nil
	case string:
		return strings.NewReader(b), nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(data), nil
	}
}

func isJSONBody(body interface{}) bool {
	switch body.(type) {
	case nil, io.Reader, []byte, string:
		return false
	default:
		return true
	}
}

func buildURI(raw string, query url.Values) (string, error) {
	if len(query) == 0 {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	existing := u.Query()
	for k, vs := range query {
		for _, v := range vs {
			existing.Add(k, v)
		}
	}
	u.RawQuery = existing.Encode()
	return u.String(), nil
}
