package authsdk

import (
	"net/http"
	"strings"
	"time"
)

// Client talks to the auth service's HTTP surface. The zero value is not
// usable; construct it with NewClient.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates an auth service client with a sane default timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}
