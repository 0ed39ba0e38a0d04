package db

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/surrealdb/surrealdb.go"

	"github.com/gmviana/studysearch-go/internal/models"
)

// siteID derives a stable record id from the site URL so re-importing the
// same site updates instead of duplicating.
func siteID(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])[:16]
}

// ListSites returns all configured sites, newest first.
func (c *Client) ListSites(ctx context.Context) ([]models.SiteConfig, error) {
	results, err := surrealdb.Query[[]models.SiteConfig](ctx, c.db, `
		SELECT * FROM site ORDER BY created DESC
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.SiteConfig{}, nil
	}
	return (*results)[0].Result, nil
}

// ActiveSitesForSearchTypes returns active sites with any of the given
// search types enabled. Empty types means all active sites.
func (c *Client) ActiveSitesForSearchTypes(ctx context.Context, types []string) ([]models.SiteConfig, error) {
	typeClause := ""
	vars := map[string]any{}
	if len(types) > 0 {
		typeClause = "AND search_types CONTAINSANY $types"
		vars["types"] = types
	}

	sql := fmt.Sprintf(`SELECT * FROM site WHERE is_active = true %s ORDER BY created DESC`, typeClause)

	results, err := surrealdb.Query[[]models.SiteConfig](ctx, c.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("active sites: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.SiteConfig{}, nil
	}
	return (*results)[0].Result, nil
}

// UpsertSite creates or updates a site keyed by URL.
func (c *Client) UpsertSite(ctx context.Context, url, name string, searchTypes []string, active bool) (*models.SiteConfig, error) {
	if searchTypes == nil {
		searchTypes = []string{}
	}

	sql := `
		UPSERT type::record("site", $id) SET
			url = $url,
			name = $name,
			is_active = $active,
			search_types = $search_types
		RETURN AFTER
	`

	results, err := surrealdb.Query[[]models.SiteConfig](ctx, c.db, sql, map[string]any{
		"id":           siteID(url),
		"url":          url,
		"name":         name,
		"active":       active,
		"search_types": searchTypes,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert site: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("upsert site: no result returned")
	}
	return &(*results)[0].Result[0], nil
}

// SetSiteActive toggles a site's active flag.
func (c *Client) SetSiteActive(ctx context.Context, url string, active bool) error {
	sql := `UPDATE type::record("site", $id) SET is_active = $active RETURN AFTER`

	results, err := surrealdb.Query[[]models.SiteConfig](ctx, c.db, sql, map[string]any{
		"id":     siteID(url),
		"active": active,
	})
	if err != nil {
		return fmt.Errorf("set site active: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return fmt.Errorf("%w: site %s", ErrNotFound, url)
	}
	return nil
}
