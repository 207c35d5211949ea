package xtv

import (
	"context"
	"net/url"
)

// Entity is the programme a search result points at.
type Entity struct {
	MerlinID    uint64 `json:"merlinId" yaml:"merlin_id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

type SearchResult struct {
	Name     string `json:"name" yaml:"name"`
	Subtitle string `json:"subtitle" yaml:"subtitle"`
	Embedded struct {
		Entity Entity `json:"entity" yaml:"entity"`
	} `json:"_embedded" yaml:"embedded"`
}

// Entity returns the embedded programme.
func (r SearchResult) Entity() Entity {
	return r.Embedded.Entity
}

// Search runs a free-text search.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	const endpoint = "/search/term/"
	data, err := c.get(ctx, endpoint, url.Values{"query": {query}})
	if err != nil {
		return nil, err
	}
	return expect[SearchResult]("GET "+endpoint, data, kindSearchResult)
}
