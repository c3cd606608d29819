// Package countries fetches the dial codes offered on the login screen.
package countries

import (
	"chat-desk/domain"
	"chat-desk/errors"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/samber/lo"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	DefaultURL     = "https://restcountries.com/v3.1/all?fields=name,cca2,idd"
	DefaultTimeout = 10 * time.Second
)

type apiCountry struct {
	Name struct {
		Common string `json:"common"`
	} `json:"name"`
	CCA2 string `json:"cca2"`
	IDD  struct {
		Root     string   `json:"root"`
		Suffixes []string `json:"suffixes"`
	} `json:"idd"`
}

type Client struct {
	url        string
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(url string, timeout time.Duration, log *slog.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{url: url, httpClient: &http.Client{Timeout: timeout}, log: log}
}

// List returns the countries sorted by display name.
// On failure it returns an empty list together with an ErrCountriesUnavailable error,
// which callers may treat as a warning.
func (c *Client) List(ctx context.Context) ([]domain.Country, error) {
	payload, err := c.fetch(ctx)
	if err != nil {
		c.log.Warn("Country list unavailable", "url", c.url, "error", err)
		return []domain.Country{}, fmt.Errorf("%w: %v", errors.ErrCountriesUnavailable, err)
	}
	countries := toCountries(payload)
	c.log.Debug("Country list loaded", "count", len(countries))
	return countries, nil
}

func (c *Client) fetch(ctx context.Context) ([]apiCountry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var payload []apiCountry
	if err = json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return payload, nil
}

// toCountries drops entries without a dial code and sorts the rest by name.
func toCountries(payload []apiCountry) []domain.Country {
	withDialCode := lo.Filter(payload, func(c apiCountry, _ int) bool {
		return c.IDD.Root != "" && len(c.IDD.Suffixes) > 0
	})
	countries := lo.Map(withDialCode, func(c apiCountry, _ int) domain.Country {
		return domain.Country{
			DisplayName: c.Name.Common,
			DialCode:    c.IDD.Root + c.IDD.Suffixes[0],
			RegionCode:  c.CCA2,
		}
	})
	collator := collate.New(language.English, collate.IgnoreCase)
	slices.SortStableFunc(countries, func(a, b domain.Country) int {
		return collator.CompareString(a.DisplayName, b.DisplayName)
	})
	return countries
}
