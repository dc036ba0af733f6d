package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/matst80/slask-gallery/pkg/resolver"
	"github.com/matst80/slask-gallery/pkg/types"
)

const productFields = `
  id
  handle
  title
  vendor
  tags
  featuredImage { url }
  priceRange { minVariantPrice { amount currencyCode } }
  artist: metafield(namespace: "custom", key: "artist") { value }
  style: metafield(namespace: "custom", key: "style") { value }
  category: metafield(namespace: "custom", key: "category") { value }
  theme: metafield(namespace: "custom", key: "theme") { value }
  dimensions: metafield(namespace: "custom", key: "dimensions") { value }
`

const productsQuery = `query Products($first: Int!, $after: String, $sortKey: ProductSortKeys, $reverse: Boolean) {
  products(first: $first, after: $after, sortKey: $sortKey, reverse: $reverse) {
    nodes {` + productFields + `}
    pageInfo { hasNextPage endCursor }
  }
}`

const collectionQuery = `query CollectionProducts($handle: String!, $first: Int!, $after: String, $sortKey: ProductCollectionSortKeys, $reverse: Boolean) {
  collection(handle: $handle) {
    products(first: $first, after: $after, sortKey: $sortKey, reverse: $reverse) {
      nodes {` + productFields + `}
      pageInfo { hasNextPage endCursor }
    }
  }
}`

type metafield struct {
	Value string `json:"value"`
}

type rawProduct struct {
	Id            string   `json:"id"`
	Handle        string   `json:"handle"`
	Title         string   `json:"title"`
	Vendor        string   `json:"vendor"`
	Tags          []string `json:"tags"`
	FeaturedImage *struct {
		Url string `json:"url"`
	} `json:"featuredImage"`
	PriceRange struct {
		MinVariantPrice struct {
			Amount       string `json:"amount"`
			CurrencyCode string `json:"currencyCode"`
		} `json:"minVariantPrice"`
	} `json:"priceRange"`
	Artist     *metafield `json:"artist"`
	Style      *metafield `json:"style"`
	Category   *metafield `json:"category"`
	Theme      *metafield `json:"theme"`
	Dimensions *metafield `json:"dimensions"`
}

type productConnection struct {
	Nodes    []rawProduct `json:"nodes"`
	PageInfo PageInfo     `json:"pageInfo"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data struct {
		Products   *productConnection `json:"products"`
		Collection *struct {
			Products productConnection `json:"products"`
		} `json:"collection"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

// StorefrontClient queries the commerce storefront GraphQL api.
type StorefrontClient struct {
	Url        string
	Token      string
	httpClient *http.Client
}

func NewStorefrontClient(url, token string, client *http.Client) *StorefrontClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &StorefrontClient{Url: url, Token: token, httpClient: client}
}

func sortVariables(opt types.SortOption, isCollection bool) (any, bool) {
	switch opt {
	case types.SortTitleAsc:
		return "TITLE", false
	case types.SortTitleDesc:
		return "TITLE", true
	case types.SortPriceAsc:
		return "PRICE", false
	case types.SortPriceDesc:
		return "PRICE", true
	}
	if isCollection {
		return "COLLECTION_DEFAULT", false
	}
	return nil, false
}

func (c *StorefrontClient) FetchPage(ctx context.Context, req PageRequest) (*CatalogPage, error) {
	first := req.First
	if first <= 0 {
		first = types.DefaultPageSize
	}
	isCollection := req.CollectionHandle != ""
	sortKey, reverse := sortVariables(req.Sort, isCollection)
	variables := map[string]any{
		"first":   first,
		"sortKey": sortKey,
		"reverse": reverse,
	}
	if req.After != "" {
		variables["after"] = req.After
	}
	query := productsQuery
	if isCollection {
		query = collectionQuery
		variables["handle"] = req.CollectionHandle
	}

	var res graphqlResponse
	err := c.do(ctx, query, variables, &res)
	trackRequest("storefront", err)
	if err != nil {
		return nil, err
	}

	var conn *productConnection
	if isCollection {
		if res.Data.Collection == nil {
			// unknown handle, nothing to list
			return &CatalogPage{Items: []types.Artwork{}}, nil
		}
		conn = &res.Data.Collection.Products
	} else {
		conn = res.Data.Products
	}
	if conn == nil {
		return nil, fmt.Errorf("%w: empty storefront response", ErrUpstream)
	}
	items := make([]types.Artwork, 0, len(conn.Nodes))
	for i := range conn.Nodes {
		items = append(items, normalizeProduct(&conn.Nodes[i]))
	}
	return &CatalogPage{Items: items, PageInfo: conn.PageInfo}, nil
}

func (c *StorefrontClient) do(ctx context.Context, query string, variables map[string]any, out *graphqlResponse) error {
	body, err := sonic.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return err
	}
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	r.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		r.Header.Set("X-Shopify-Storefront-Access-Token", c.Token)
	}
	resp, err := c.httpClient.Do(r)
	if err != nil {
		return fmt.Errorf("storefront request failed: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read storefront response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: storefront returned status %d: %s", ErrUpstream, resp.StatusCode, string(data))
	}
	if err = sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode storefront response: %w", err)
	}
	if len(out.Errors) > 0 {
		return fmt.Errorf("%w: %s", ErrUpstream, out.Errors[0].Message)
	}
	return nil
}

// metafieldValues accepts json list metafields as well as plain or comma
// separated text.
func metafieldValues(m *metafield) []string {
	if m == nil || strings.TrimSpace(m.Value) == "" {
		return nil
	}
	value := strings.TrimSpace(m.Value)
	if strings.HasPrefix(value, "[") {
		var list []string
		if err := sonic.UnmarshalString(value, &list); err == nil {
			return cleanList(list)
		}
	}
	return cleanList(strings.Split(value, ","))
}

func cleanList(values []string) []string {
	ret := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			ret = append(ret, v)
		}
	}
	if len(ret) == 0 {
		return nil
	}
	return ret
}

func tagValues(tags []string, prefix string) []string {
	ret := make([]string, 0)
	for _, tag := range tags {
		if value, ok := strings.CutPrefix(tag, prefix); ok {
			if value = strings.TrimSpace(value); value != "" {
				ret = append(ret, value)
			}
		}
	}
	if len(ret) == 0 {
		return nil
	}
	return ret
}

func numericId(gid string) string {
	if idx := strings.LastIndex(gid, "/"); idx >= 0 {
		return gid[idx+1:]
	}
	return gid
}

// normalizeProduct maps a storefront product onto an Artwork.
func normalizeProduct(p *rawProduct) types.Artwork {
	artist := p.Vendor
	if names := metafieldValues(p.Artist); len(names) > 0 {
		artist = names[0]
	}
	a := types.Artwork{
		Id:         numericId(p.Id),
		Gid:        p.Id,
		Title:      strings.TrimSpace(p.Title),
		Handle:     p.Handle,
		ArtistName: strings.TrimSpace(artist),
		ArtistSlug: resolver.Slugify(artist),
		Price:      p.PriceRange.MinVariantPrice.Amount,
		Currency:   p.PriceRange.MinVariantPrice.CurrencyCode,
		Styles:     metafieldValues(p.Style),
		StyleTags:  tagValues(p.Tags, "style:"),
		Themes:     metafieldValues(p.Theme),
		ThemeTags:  tagValues(p.Tags, "theme:"),
		Source:     types.SourceCatalog,
	}
	if categories := metafieldValues(p.Category); len(categories) > 0 {
		a.Category = categories[0]
	}
	if p.Dimensions != nil {
		a.Dimensions = strings.TrimSpace(p.Dimensions.Value)
	}
	if p.FeaturedImage != nil {
		a.ImageUrl = p.FeaturedImage.Url
	}
	return a
}
