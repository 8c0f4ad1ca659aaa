package main

import (
	"flag"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"Travel_Companion/backend/go/internal/config"
	"Travel_Companion/backend/go/pkg/tools/travel/handler"
)

// STDIO transport (default)
//go run server.go
//go run server.go -transport=stdio
//
// SSE transport on port 8086
//go run server.go -transport=sse -port=8086
//
// StreamableHTTP transport on port 9000
//go run server.go -transport=httpstream -port=9000
//
// The user JWT is taken from the TRAVEL_COMPANION_TOKEN environment variable.

func main() {
	// Define command-line flags
	transport := flag.String("transport", "stdio", "Transport method: stdio, sse, or httpstream")
	port := flag.String("port", "8086", "Port for HTTP-based transports (sse, httpstream)")
	chatURL := flag.String("chat-url", "http://localhost:8080", "Base URL of the chat service")
	knowledgeURL := flag.String("knowledge-url", "http://localhost:8082", "Base URL of the knowledge service")
	flag.Parse()

	token := os.Getenv("TRAVEL_COMPANION_TOKEN")
	if token == "" {
		log.Fatal("TRAVEL_COMPANION_TOKEN is not set")
	}

	h, err := handler.New(*chatURL, *knowledgeURL, token, config.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          "30s",
	})
	if err != nil {
		log.Fatalf("failed to create handler: %v", err)
	}

	// Create a new MCP server
	s := server.NewMCPServer(
		"TravelCompanion",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	searchTool := mcp.NewTool("search_pois",
		mcp.WithDescription("Semantic search over the travel knowledge base of points of interest"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Free-text description of the place to look for"),
		),
		mcp.WithNumber("top_k",
			mcp.Description("Maximum number of results to return (default 5)"),
		),
	)
	s.AddTool(searchTool, h.SearchPOIs)

	chatTool := mcp.NewTool("chat",
		mcp.WithDescription("Send a message to the travel companion and get a persona-aware reply"),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The message to send"),
		),
		mcp.WithString("session_id",
			mcp.Description("Conversation session to continue; a new one is started when omitted"),
		),
	)
	s.AddTool(chatTool, h.Chat)

	suggestionsTool := mcp.NewTool("get_suggestions",
		mcp.WithDescription("Get follow-up prompt suggestions for a travel question"),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The message to get suggestions for"),
		),
	)
	s.AddTool(suggestionsTool, h.GetSuggestions)

	// Start server based on transport selection
	switch *transport {
	case "sse":
		log.Printf("Starting TravelCompanion MCP server with SSE transport on port %s", *port)
		sseServer := server.NewSSEServer(s)
		if err := sseServer.Start(":" + *port); err != nil {
			log.Fatalf("SSE server error: %v", err)
		}
	case "httpstream":
		log.Printf("Starting TravelCompanion MCP server with StreamableHTTP transport on port %s", *port)
		httpServer := server.NewStreamableHTTPServer(s)
		if err := httpServer.Start(":" + *port); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	case "stdio":
		log.Println("Starting TravelCompanion MCP server with STDIO transport")
		if err := server.ServeStdio(s); err != nil {
			log.Fatalf("STDIO server error: %v", err)
		}
	default:
		log.Fatalf("Unknown transport: %s. Use stdio, sse, or httpstream", *transport)
	}
}
