package renderer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/facture/internal/invoice"
)

const (
	DefaultURL      = "https://invoice-generator.com"
	DefaultLanguage = "fr-FR"
	DefaultTimeout  = 15 * time.Second
)

var ErrMissingAPIKey = errors.New("renderer api key is not configured")

// ServiceError is returned when the renderer answers with a non-2xx status.
type ServiceError struct {
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("renderer returned status %d: %s", e.StatusCode, e.Body)
}

// Client posts invoice payloads to the external PDF renderer.
type Client struct {
	url      string
	apiKey   string
	language string
	client   *http.Client
}

type Option func(*Client)

func WithURL(url string) Option {
	return func(c *Client) { c.url = url }
}

func WithLanguage(lang string) Option {
	return func(c *Client) { c.language = lang }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.client.Timeout = d }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		url:      DefaultURL,
		apiKey:   apiKey,
		language: DefaultLanguage,
		client:   &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Render sends p and returns the PDF bytes.
func (c *Client) Render(ctx context.Context, p invoice.Payload) ([]byte, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	body := strings.NewReader(p.Form().Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept-Language", c.language)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	return data, nil
}
