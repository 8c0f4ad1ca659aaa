package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

var registerUsername string

var registerCmd = &cobra.Command{
	Use:   "register [email] [password]",
	Short: "Create a new account",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		register(args[0], args[1])
	},
}

var loginCmd = &cobra.Command{
	Use:   "login [email] [password]",
	Short: "Log in and save the session token",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		login(args[0], args[1])
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerUsername, "username", "", "Display name for the new account")
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
}

func register(email, password string) {
	username := registerUsername
	if username == "" {
		username = email
	}

	payload, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
		"username": username,
	})

	resp, err := http.Post(userURL+"/api/v1/auth/register", "application/json", bytes.NewBuffer(payload))
	if err != nil {
		log.Fatalf("Error registering: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Failed to register, status code: %d", resp.StatusCode)
	}

	fmt.Println("Account created. You can now log in:")
	fmt.Printf("  companion-cli login %s <password>\n", email)
}

func login(email, password string) {
	payload, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})

	resp, err := http.Post(userURL+"/api/v1/auth/login", "application/json", bytes.NewBuffer(payload))
	if err != nil {
		log.Fatalf("Error logging in: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Failed to log in, status code: %d", resp.StatusCode)
	}

	var result map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Fatalf("Error decoding response: %v", err)
	}

	if err := saveToken(result["token"]); err != nil {
		log.Fatalf("Error saving token: %v", err)
	}
	fmt.Println("Logged in.")
}

// doAuthorized performs a request with the saved JWT attached.
func doAuthorized(method, endpoint string, body []byte) (*http.Response, error) {
	token, err := loadToken()
	if err != nil {
		return nil, err
	}

	var reader *bytes.Buffer
	if body != nil {
		reader = bytes.NewBuffer(body)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return http.DefaultClient.Do(req)
}
