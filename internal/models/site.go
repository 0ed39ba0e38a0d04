package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// SiteConfig is an administrator-configured crawl source. The pipeline and
// the search aggregator only read these rows; they never mutate them.
type SiteConfig struct {
	ID          surrealmodels.RecordID `json:"id"`
	URL         string                 `json:"url"`
	Name        string                 `json:"name,omitempty"`
	IsActive    bool                   `json:"is_active"`
	SearchTypes []string               `json:"search_types"`
	Created     time.Time              `json:"created,omitempty"`
}

// SiteSeed is one entry of a YAML site import file.
type SiteSeed struct {
	URL         string   `yaml:"url"`
	Name        string   `yaml:"name"`
	SearchTypes []string `yaml:"search_types"`
	Active      *bool    `yaml:"active"`
}

// SiteSeedFile is the root of a YAML site import file.
type SiteSeedFile struct {
	Sites []SiteSeed `yaml:"sites"`
}
