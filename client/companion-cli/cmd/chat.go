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

var (
	chatSession  string
	chatLocation string
	historyLimit int
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send a message to the travel companion",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sendChat(args[0])
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "Replay a conversation session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		showHistory(args[0])
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatSession, "session", "", "Session ID to continue (a new one is started when omitted)")
	chatCmd.Flags().StringVar(&chatLocation, "location", "", "Current location for context-aware replies")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of turns to show")
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(historyCmd)
}

func sendChat(message string) {
	body := map[string]interface{}{
		"message":    message,
		"session_id": chatSession,
	}
	if chatLocation != "" {
		body["context"] = map[string]string{"location": chatLocation}
	}
	payload, _ := json.Marshal(body)

	resp, err := doAuthorized(http.MethodPost, chatURL+"/api/v1/chat", payload)
	if err != nil {
		log.Fatalf("Error sending message: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Chat failed, status code: %d", resp.StatusCode)
	}

	var result struct {
		Response    string   `json:"response"`
		SessionID   string   `json:"session_id"`
		Suggestions []string `json:"suggestions"`
		Degraded    bool     `json:"degraded"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Fatalf("Error decoding response: %v", err)
	}

	fmt.Println(result.Response)
	if result.Degraded {
		fmt.Println("(offline reply, the companion could not reach its model)")
	}
	if len(result.Suggestions) > 0 {
		fmt.Println("\nYou could ask:")
		for _, s := range result.Suggestions {
			fmt.Printf("  - %s\n", s)
		}
	}
	fmt.Printf("\nSession: %s\n", result.SessionID)
}

func showHistory(sessionID string) {
	endpoint := chatURL + "/api/v1/chat/history?session_id=" + url.QueryEscape(sessionID) +
		"&limit=" + strconv.Itoa(historyLimit)

	resp, err := doAuthorized(http.MethodGet, endpoint, nil)
	if err != nil {
		log.Fatalf("Error fetching history: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("History request failed, status code: %d", resp.StatusCode)
	}

	var result struct {
		Turns []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"turns"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Fatalf("Error decoding response: %v", err)
	}

	for _, turn := range result.Turns {
		fmt.Printf("[%s] %s\n", turn.Role, turn.Content)
	}
}
