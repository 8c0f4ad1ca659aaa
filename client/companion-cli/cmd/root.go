package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	userURL      string
	chatURL      string
	knowledgeURL string
	insightURL   string
)

var rootCmd = &cobra.Command{
	Use:   "companion-cli",
	Short: "A CLI client to interact with the travel companion services",
	Long:  `A command-line interface for chatting with the travel companion, searching the POI knowledge base and managing your travel DNA profile.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your CLI: %s", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&userURL, "user-url", "http://localhost:8081", "Base URL of the user service")
	rootCmd.PersistentFlags().StringVar(&chatURL, "chat-url", "http://localhost:8080", "Base URL of the chat service")
	rootCmd.PersistentFlags().StringVar(&knowledgeURL, "knowledge-url", "http://localhost:8082", "Base URL of the knowledge service")
	rootCmd.PersistentFlags().StringVar(&insightURL, "insight-url", "http://localhost:8083", "Base URL of the insight service")
}

// tokenPath returns the location of the saved JWT.
func tokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".companion-token"
	}
	return filepath.Join(home, ".companion-cli", "token")
}

// saveToken stores the JWT for later commands.
func saveToken(token string) error {
	path := tokenPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token), 0o600)
}

// loadToken reads the JWT saved by a previous login.
func loadToken() (string, error) {
	data, err := os.ReadFile(tokenPath())
	if err != nil {
		return "", fmt.Errorf("not logged in, run: companion-cli login <email> <password>")
	}
	return strings.TrimSpace(string(data)), nil
}
