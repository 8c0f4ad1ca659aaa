package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var dnaCmd = &cobra.Command{
	Use:   "dna",
	Short: "Manage your travel DNA profile",
}

var dnaAnalyzeCmd = &cobra.Command{
	Use:   "analyze [question=answer ...]",
	Short: "Run the travel DNA quiz analysis",
	Long: `Run the travel DNA quiz analysis from question=answer pairs, for example:

  companion-cli dna analyze budget_preference=budget activity_preference=adventure`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		analyzeDNA(args)
	},
}

var dnaTrainCmd = &cobra.Command{
	Use:   "train [kind]",
	Short: "Submit a training job (dna_refresh or reranker)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		submitTraining(args[0])
	},
}

var dnaWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch for real-time training job updates",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		watchJobs()
	},
}

func init() {
	rootCmd.AddCommand(dnaCmd)
	dnaCmd.AddCommand(dnaAnalyzeCmd)
	dnaCmd.AddCommand(dnaTrainCmd)
	dnaCmd.AddCommand(dnaWatchCmd)
}

func analyzeDNA(pairs []string) {
	answers := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			log.Fatalf("Invalid answer %q, expected question=answer", pair)
		}
		answers[key] = value
	}

	payload, _ := json.Marshal(map[string]interface{}{"answers": answers})
	resp, err := doAuthorized(http.MethodPost, insightURL+"/api/v1/travel-dna/analyze", payload)
	if err != nil {
		log.Fatalf("Error analyzing quiz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Analysis failed, status code: %d", resp.StatusCode)
	}

	var profile struct {
		PrimaryType string             `json:"primary_type"`
		Confidence  float64            `json:"confidence"`
		Description string             `json:"description"`
		Keywords    []string           `json:"keywords"`
		Scores      map[string]float64 `json:"scores"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		log.Fatalf("Error decoding response: %v", err)
	}

	fmt.Printf("Your travel DNA: %s (confidence %.0f%%)\n", profile.PrimaryType, profile.Confidence*100)
	fmt.Println(profile.Description)
	fmt.Printf("Keywords: %s\n", strings.Join(profile.Keywords, ", "))
}

func submitTraining(kind string) {
	payload, _ := json.Marshal(map[string]string{"kind": kind})
	resp, err := doAuthorized(http.MethodPost, insightURL+"/api/v1/models/train", payload)
	if err != nil {
		log.Fatalf("Error submitting job: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		log.Fatalf("Failed to submit job, status code: %d", resp.StatusCode)
	}

	var result map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Fatalf("Error decoding response: %v", err)
	}

	fmt.Printf("Job submitted successfully!\nJob ID: %s\n", result["job_id"])
	fmt.Println("To watch for updates, run: companion-cli dna watch")
}

func watchJobs() {
	token, err := loadToken()
	if err != nil {
		log.Fatal(err)
	}

	base, err := url.Parse(insightURL)
	if err != nil {
		log.Fatalf("Invalid insight URL: %v", err)
	}
	u := url.URL{Scheme: "ws", Host: base.Host, Path: "/ws/jobs"}
	log.Printf("Connecting to %s", u.String())

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	c, _, err := websocket.DefaultDialer.Dial(u.String(), header)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer c.Close()

	fmt.Println("WebSocket connected. Waiting for job updates...")

	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			log.Println("read:", err)
			return
		}

		// Pretty print the JSON output
		var prettyJSON bytes.Buffer
		if err := json.Indent(&prettyJSON, message, "", "  "); err != nil {
			log.Printf("Error formatting JSON: %v. Raw message: %s", err, message)
		} else {
			fmt.Println(prettyJSON.String())
		}
	}
}
