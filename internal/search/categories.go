// Package search merges similarity results from the curated index and the
// crawled-content index at query time.
package search

import "strings"

// Search categories partitioning the curated index and site configuration.
const (
	CategoryPublicExams   = "public-exams"
	CategoryJobListings   = "job-listings"
	CategoryLegislation   = "legislation"
	CategoryStudyMaterial = "study-material"
)

// DefaultCategory is used when no query keyword matches.
const DefaultCategory = CategoryStudyMaterial

// categoryKeywords maps query keywords to search categories, in match
// priority order. Matching is substring-based over the lowercased query.
var categoryKeywords = []struct {
	keyword  string
	category string
}{
	{"concurso", CategoryPublicExams},
	{"edital", CategoryPublicExams},
	{"auditor", CategoryPublicExams},
	{"fiscal", CategoryPublicExams},
	{"exam", CategoryPublicExams},
	{"civil serv", CategoryPublicExams},

	{"vaga", CategoryJobListings},
	{"emprego", CategoryJobListings},
	{"job", CategoryJobListings},
	{"vacanc", CategoryJobListings},
	{"salary", CategoryJobListings},
	{"salário", CategoryJobListings},
	{"position", CategoryJobListings},

	{"lei", CategoryLegislation},
	{"decreto", CategoryLegislation},
	{"law", CategoryLegislation},
	{"regulation", CategoryLegislation},
	{"statute", CategoryLegislation},
	{"norma", CategoryLegislation},
}

// InferCategories derives applicable categories from query keywords.
// Returns the default category when nothing matches.
func InferCategories(query string) []string {
	lower := strings.ToLower(query)

	seen := make(map[string]bool)
	var categories []string
	for _, kc := range categoryKeywords {
		if strings.Contains(lower, kc.keyword) && !seen[kc.category] {
			seen[kc.category] = true
			categories = append(categories, kc.category)
		}
	}

	if len(categories) == 0 {
		return []string{DefaultCategory}
	}
	return categories
}
