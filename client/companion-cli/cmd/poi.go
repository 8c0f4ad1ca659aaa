package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

var poiTopK int

var poiCmd = &cobra.Command{
	Use:   "poi",
	Short: "Interact with the POI knowledge base",
}

var poiSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Semantic search for points of interest",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		searchPOIs(args[0])
	},
}

func init() {
	poiSearchCmd.Flags().IntVar(&poiTopK, "top-k", 5, "Maximum number of results")
	rootCmd.AddCommand(poiCmd)
	poiCmd.AddCommand(poiSearchCmd)
}

func searchPOIs(query string) {
	endpoint := knowledgeURL + "/api/v1/knowledge/search?query=" + url.QueryEscape(query) +
		"&top_k=" + strconv.Itoa(poiTopK)

	resp, err := doAuthorized(http.MethodGet, endpoint, nil)
	if err != nil {
		log.Fatalf("Error searching POIs: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Search failed, status code: %d", resp.StatusCode)
	}

	var result struct {
		Hits []struct {
			Name        string  `json:"name"`
			Description string  `json:"description"`
			Tips        string  `json:"tips"`
			Score       float64 `json:"score"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Fatalf("Error decoding response: %v", err)
	}

	if len(result.Hits) == 0 {
		fmt.Println("No matching places found.")
		return
	}
	for i, hit := range result.Hits {
		fmt.Printf("%d. %s (%.2f)\n   %s\n", i+1, hit.Name, hit.Score, hit.Description)
		if hit.Tips != "" {
			fmt.Printf("   Tips: %s\n", hit.Tips)
		}
	}
}
