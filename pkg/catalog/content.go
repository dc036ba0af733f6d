package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/matst80/slask-gallery/pkg/resolver"
	"github.com/matst80/slask-gallery/pkg/types"
)

const curatedQuery = `*[_type == "artwork" && featured == true] | order(orderRank asc) {
  _id, title, "slug": slug.current, "image": image.asset->url, productGid, price, currency,
  dimensions, styles, category, themes, "artist": artist->{name, "slug": slug.current}
}`

type rawCurated struct {
	Id         string   `json:"_id"`
	Title      string   `json:"title"`
	Slug       string   `json:"slug"`
	Image      string   `json:"image"`
	ProductGid string   `json:"productGid"`
	Price      any      `json:"price"`
	Currency   string   `json:"currency"`
	Dimensions string   `json:"dimensions"`
	Styles     []string `json:"styles"`
	Category   string   `json:"category"`
	Themes     []string `json:"themes"`
	Artist     *struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	} `json:"artist"`
}

type contentResponse struct {
	Result []rawCurated `json:"result"`
}

// ContentClient reads the curated set from the content store query api.
type ContentClient struct {
	Url        string
	Query      string
	httpClient *http.Client
}

func NewContentClient(url string, client *http.Client) *ContentClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &ContentClient{Url: url, Query: curatedQuery, httpClient: client}
}

func (c *ContentClient) FetchCurated(ctx context.Context) (*CatalogPage, error) {
	items, err := c.fetch(ctx)
	trackRequest("content", err)
	if err != nil {
		return nil, err
	}
	return curatedPage(items), nil
}

func (c *ContentClient) fetch(ctx context.Context) ([]types.Artwork, error) {
	u, err := url.Parse(c.Url)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("query", c.Query)
	u.RawQuery = q.Encode()

	r, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(r)
	if err != nil {
		return nil, fmt.Errorf("content request failed: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read content response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: content store returned status %d", ErrUpstream, resp.StatusCode)
	}
	var res contentResponse
	if err = sonic.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to decode content response: %w", err)
	}
	items := make([]types.Artwork, 0, len(res.Result))
	for i := range res.Result {
		items = append(items, normalizeCurated(&res.Result[i]))
	}
	return items, nil
}

func priceString(v any) string {
	switch p := v.(type) {
	case string:
		return strings.TrimSpace(p)
	case float64:
		return fmt.Sprintf("%.2f", p)
	}
	return ""
}

// normalizeCurated keys the item on the linked product so curated and
// catalog copies of the same artwork collapse.
func normalizeCurated(c *rawCurated) types.Artwork {
	a := types.Artwork{
		Id:         c.Id,
		Gid:        c.ProductGid,
		Title:      strings.TrimSpace(c.Title),
		Handle:     c.Slug,
		ImageUrl:   c.Image,
		Price:      priceString(c.Price),
		Currency:   c.Currency,
		Dimensions: c.Dimensions,
		Styles:     cleanList(c.Styles),
		Category:   strings.TrimSpace(c.Category),
		Themes:     cleanList(c.Themes),
		Source:     types.SourceCurated,
	}
	if c.Artist != nil {
		a.ArtistName = strings.TrimSpace(c.Artist.Name)
		a.ArtistSlug = c.Artist.Slug
		if a.ArtistSlug == "" {
			a.ArtistSlug = resolver.Slugify(c.Artist.Name)
		}
	}
	return a
}
