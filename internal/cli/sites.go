package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gmviana/studysearch-go/internal/crawler"
	"github.com/gmviana/studysearch-go/internal/models"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Manage crawl site configuration",
}

var sitesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured sites",
	Args:  cobra.NoArgs,
	RunE:  runSitesList,
}

var (
	siteAddName  string
	siteAddTypes []string
)

var sitesAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Add or update a crawl site",
	Long: `Add a site to the crawl configuration, or update it if the URL is
already configured.

Examples:
  studysearch sites add https://example.org --name "Example board" -t public-exams
  studysearch sites add https://jobs.example.org -t job-listings,study-material`,
	Args: cobra.ExactArgs(1),
	RunE: runSitesAdd,
}

var sitesImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import sites from a YAML file",
	Long: `Import site configuration from a YAML file:

  sites:
    - url: https://example.org
      name: Example board
      search_types: [public-exams]
    - url: https://jobs.example.org
      search_types: [job-listings]
      active: false`,
	Args: cobra.ExactArgs(1),
	RunE: runSitesImport,
}

var sitesEnableCmd = &cobra.Command{
	Use:   "enable <url>",
	Short: "Enable a site for crawling and search",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setSiteActive(args[0], true)
	},
}

var sitesDisableCmd = &cobra.Command{
	Use:   "disable <url>",
	Short: "Disable a site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setSiteActive(args[0], false)
	},
}

func init() {
	sitesAddCmd.Flags().StringVar(&siteAddName, "name", "", "display name")
	sitesAddCmd.Flags().StringSliceVarP(&siteAddTypes, "search-types", "t", nil, "search types this site serves")

	sitesCmd.AddCommand(sitesListCmd)
	sitesCmd.AddCommand(sitesAddCmd)
	sitesCmd.AddCommand(sitesImportCmd)
	sitesCmd.AddCommand(sitesEnableCmd)
	sitesCmd.AddCommand(sitesDisableCmd)
}

func runSitesList(cmd *cobra.Command, args []string) error {
	sites, err := dbClient.ListSites(context.Background())
	if err != nil {
		return fmt.Errorf("list sites: %w", err)
	}

	if len(sites) == 0 {
		fmt.Println("No sites configured.")
		return nil
	}

	fmt.Printf("%-8s %-40s %-25s %s\n", "ACTIVE", "URL", "NAME", "SEARCH TYPES")
	fmt.Println(strings.Repeat("-", 100))
	for _, site := range sites {
		active := "yes"
		if !site.IsActive {
			active = "no"
		}
		fmt.Printf("%-8s %-40s %-25s %s\n", active, site.URL, site.Name, strings.Join(site.SearchTypes, ","))
	}
	return nil
}

func runSitesAdd(cmd *cobra.Command, args []string) error {
	siteURL := args[0]
	if !crawler.IsValidURL(siteURL) {
		return fmt.Errorf("invalid site URL: %s", siteURL)
	}

	site, err := dbClient.UpsertSite(context.Background(), siteURL, siteAddName, siteAddTypes, true)
	if err != nil {
		return fmt.Errorf("add site: %w", err)
	}

	fmt.Printf("Site configured: %s (%s)\n", site.URL, strings.Join(site.SearchTypes, ","))
	return nil
}

func runSitesImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read sites file: %w", err)
	}

	var seedFile models.SiteSeedFile
	if err := yaml.Unmarshal(data, &seedFile); err != nil {
		return fmt.Errorf("parse sites file: %w", err)
	}

	ctx := context.Background()
	imported := 0
	for _, seed := range seedFile.Sites {
		if !crawler.IsValidURL(seed.URL) {
			fmt.Fprintf(os.Stderr, "Skipping invalid URL: %s\n", seed.URL)
			continue
		}
		active := true
		if seed.Active != nil {
			active = *seed.Active
		}
		if _, err := dbClient.UpsertSite(ctx, seed.URL, seed.Name, seed.SearchTypes, active); err != nil {
			return fmt.Errorf("import %s: %w", seed.URL, err)
		}
		imported++
	}

	fmt.Printf("Imported %d sites.\n", imported)
	return nil
}

func setSiteActive(siteURL string, active bool) error {
	if err := dbClient.SetSiteActive(context.Background(), siteURL, active); err != nil {
		return fmt.Errorf("update site: %w", err)
	}
	state := "enabled"
	if !active {
		state = "disabled"
	}
	fmt.Printf("Site %s: %s\n", state, siteURL)
	return nil
}
