package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/stocktake/pkg/slogx"
)

// LookupResult is what the marketplace knows about an EAN. Source is "api",
// "search" or "fallback".
type LookupResult struct {
	EAN     string `json:"ean"`
	Name    string `json:"name"`
	Color   string `json:"color,omitempty"`
	Voltage string `json:"voltage,omitempty"`
	Model   string `json:"model,omitempty"`
	Source  string `json:"source"`
}

// LookupClient queries an external marketplace for product details by EAN.
// Lookups are best-effort: every failure path degrades to a fallback record
// so product entry is never blocked on a third party.
type LookupClient struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client

	tokenMu     sync.Mutex
	token       string
	tokenExpiry time.Time
}

// tokenExpiryMargin refreshes the cached token slightly before the server
// says it expires.
const tokenExpiryMargin = 60 * time.Second

func (c *LookupClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// Lookup resolves an EAN. The product API is tried first, then the site
// search; when both fail the caller still gets a usable fallback record.
func (c *LookupClient) Lookup(ctx context.Context, ean string) LookupResult {
	l := slogx.FromContext(ctx)

	if c.BaseURL != "" {
		if r, err := c.lookupAPI(ctx, ean); err == nil {
			return r
		} else {
			l.Warn("product api lookup failed", slog.String("ean", ean), slog.Any("error", err))
		}

		if r, err := c.lookupSearch(ctx, ean); err == nil {
			return r
		} else {
			l.Warn("site search lookup failed", slog.String("ean", ean), slog.Any("error", err))
		}
	}

	return LookupResult{
		EAN:    ean,
		Name:   "Produto " + ean,
		Source: "fallback",
	}
}

func (c *LookupClient) lookupAPI(ctx context.Context, ean string) (LookupResult, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return LookupResult{}, err
	}

	endpoint := strings.TrimRight(c.BaseURL, "/") + "/products/search?ean=" + url.QueryEscape(ean)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return LookupResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return LookupResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return LookupResult{}, fmt.Errorf("product api status %d", resp.StatusCode)
	}

	var payload struct {
		Results []struct {
			Title      string `json:"title"`
			Attributes []struct {
				Name  string `json:"name"`
				Value string `json:"value_name"`
			} `json:"attributes"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return LookupResult{}, err
	}
	if len(payload.Results) == 0 {
		return LookupResult{}, errors.New("no results")
	}

	first := payload.Results[0]
	r := LookupResult{EAN: ean, Name: first.Title, Source: "api"}
	for _, attr := range first.Attributes {
		switch strings.ToLower(attr.Name) {
		case "cor", "color":
			r.Color = attr.Value
		case "voltagem", "voltage":
			r.Voltage = attr.Value
		case "modelo", "model":
			r.Model = attr.Value
		}
	}
	fillFromTitle(&r)
	return r, nil
}

// lookupSearch scrapes the public search page as a degraded path when the
// product API has no answer.
func (c *LookupClient) lookupSearch(ctx context.Context, ean string) (LookupResult, error) {
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/search?q=" + url.QueryEscape(ean)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return LookupResult{}, err
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return LookupResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return LookupResult{}, fmt.Errorf("search status %d", resp.StatusCode)
	}

	title, err := firstSearchTitle(resp.Body)
	if err != nil {
		return LookupResult{}, err
	}

	r := LookupResult{EAN: ean, Name: title, Source: "search"}
	fillFromTitle(&r)
	return r, nil
}

// accessToken returns the cached client-credentials token, refreshing it
// when close to expiry.
func (c *LookupClient) accessToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-tokenExpiryMargin)) {
		return c.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.ClientID},
		"client_secret": {c.ClientSecret},
	}
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/oauth/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint status %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if payload.AccessToken == "" {
		return "", errors.New("empty access token")
	}

	c.token = payload.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	return c.token, nil
}

var titleRe = regexp.MustCompile(`(?is)<h2[^>]*>(.*?)</h2>`)

// firstSearchTitle pulls the first result heading out of the search page.
func firstSearchTitle(body io.Reader) (string, error) {
	page, err := io.ReadAll(io.LimitReader(body, 1<<20))
	if err != nil {
		return "", err
	}

	m := titleRe.FindSubmatch(page)
	if m == nil {
		return "", errors.New("no results on search page")
	}

	title := html.UnescapeString(stripTags(string(m[1])))
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		return "", errors.New("empty result title")
	}
	return title, nil
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

func stripTags(s string) string {
	return tagRe.ReplaceAllString(s, "")
}

var (
	voltageRe = regexp.MustCompile(`(?i)\b(110\s?v|220\s?v|bivolt)\b`)
	modelRe   = regexp.MustCompile(`\b([A-Z]{2,}[-]?\d{2,}[A-Z0-9-]*)\b`)
)

var knownColors = []string{
	"preto", "branco", "vermelho", "azul", "verde", "amarelo",
	"cinza", "prata", "dourado", "rosa", "roxo", "inox",
}

// fillFromTitle extracts voltage, color and model from a product title when
// the structured attributes did not provide them.
func fillFromTitle(r *LookupResult) {
	if r.Voltage == "" {
		if m := voltageRe.FindString(r.Name); m != "" {
			r.Voltage = strings.ToUpper(strings.ReplaceAll(m, " ", ""))
		}
	}
	if r.Color == "" {
		lower := strings.ToLower(r.Name)
		for _, color := range knownColors {
			if strings.Contains(lower, color) {
				r.Color = color
				break
			}
		}
	}
	if r.Model == "" {
		if m := modelRe.FindString(r.Name); m != "" {
			r.Model = m
		}
	}
}
