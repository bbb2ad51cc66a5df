package btp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

// ErrNoCSRFToken is returned when neither config, cookie nor page provide a token.
var ErrNoCSRFToken = errors.New("no CSRF token available")

// CSRFToken resolves the token echoed on mutating requests: the configured
// value, then the csrftoken cookie, then the csrf-token meta tag of the
// backend home page.
func (c *Client) CSRFToken(ctx context.Context) (string, error) {
	if c.csrfToken != "" {
		return c.csrfToken, nil
	}
	if token := c.cookieToken(); token != "" {
		return token, nil
	}

	page, err := c.fetchPage(ctx, "/")
	if err != nil {
		return "", fmt.Errorf("fetching CSRF token: %w", err)
	}
	// The page visit may have set the cookie.
	if token := c.cookieToken(); token != "" {
		return token, nil
	}
	if token := MetaCSRFToken(page); token != "" {
		return token, nil
	}
	return "", ErrNoCSRFToken
}

func (c *Client) cookieToken() string {
	for _, cookie := range c.httpClient.Jar.Cookies(c.baseURL) {
		if cookie.Name == csrfCookieName && cookie.Value != "" {
			return cookie.Value
		}
	}
	return ""
}

func (c *Client) fetchPage(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, nil), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("reading page: %w", err)
	}
	return buf.Bytes(), nil
}

// MetaCSRFToken extracts <meta name="csrf-token" content="..."> from a page.
func MetaCSRFToken(page []byte) string {
	z := html.NewTokenizer(bytes.NewReader(page))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "meta" {
				continue
			}
			var name, content string
			for _, attr := range tok.Attr {
				switch strings.ToLower(attr.Key) {
				case "name":
					name = attr.Val
				case "content":
					content = attr.Val
				}
			}
			if strings.EqualFold(name, "csrf-token") && content != "" {
				return content
			}
		}
	}
}
