package imagemanager

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Parameter structures for MCP tools
type ListImagesParams struct {
	Root       string `json:"root"`
	Recursive  *bool  `json:"recursive,omitempty"`
	Sort       string `json:"sort,omitempty"`
	Ascending  *bool  `json:"ascending,omitempty"`
	MaxResults *int   `json:"max_results,omitempty"`
}

type RenameImagesParams struct {
	Root        string `json:"root"`
	Keyword     string `json:"keyword"`
	CurrentPath string `json:"current_path,omitempty"`
	DryRun      bool   `json:"dry_run"`
}

type TrashImagesParams struct {
	FilePaths []string `json:"file_paths"`
}

type ValidateKeywordParams struct {
	Keyword  string   `json:"keyword"`
	Existing []string `json:"existing,omitempty"`
}

type GetSessionParams struct{}

// Tool handler functions
func ListImagesTool(ctx context.Context, req *mcp.CallToolRequest, args ListImagesParams, manager Manager, config *Config) (*mcp.CallToolResult, any, error) {
	opts := ListOptions{
		Recursive: config.Recursive,
		Sort:      config.SortMode,
		Ascending: config.SortAscending,
	}
	if args.Recursive != nil {
		opts.Recursive = *args.Recursive
	}
	if args.Sort != "" {
		opts.Sort = SortMode(args.Sort)
	}
	if args.Ascending != nil {
		opts.Ascending = *args.Ascending
	}

	result, err := manager.ListImages(ctx, args.Root, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list images: %w", err)
	}

	if args.MaxResults != nil && len(result) > *args.MaxResults {
		result = result[:*args.MaxResults]
	}

	return nil, result, nil
}

func RenameImagesTool(ctx context.Context, req *mcp.CallToolRequest, args RenameImagesParams, manager Manager) (*mcp.CallToolResult, any, error) {
	if args.DryRun {
		plan, err := manager.PlanKeywordRename(ctx, args.Root, args.Keyword)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to plan rename: %w", err)
		}
		return nil, plan, nil
	}

	result, err := manager.KeywordRename(ctx, args.Root, args.Keyword, args.CurrentPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to rename images: %w", err)
	}

	return nil, result, nil
}

func TrashImagesTool(ctx context.Context, req *mcp.CallToolRequest, args TrashImagesParams, manager Manager) (*mcp.CallToolResult, any, error) {
	if len(args.FilePaths) == 0 {
		return nil, nil, fmt.Errorf("no file paths provided")
	}

	result := manager.MoveToTrash(ctx, args.FilePaths)
	return nil, result, nil
}

func ValidateKeywordTool(ctx context.Context, req *mcp.CallToolRequest, args ValidateKeywordParams, manager Manager) (*mcp.CallToolResult, any, error) {
	result := manager.ValidateKeyword(args.Keyword, args.Existing)
	return nil, result, nil
}

func GetSessionTool(ctx context.Context, req *mcp.CallToolRequest, args GetSessionParams, sessionPath string) (*mcp.CallToolResult, any, error) {
	return nil, LoadSession(sessionPath), nil
}

// RunMCPServer starts the MCP server implementation using the official Go SDK
// If transport is nil, it will use stdio transport
func RunMCPServer(configPath, sessionFile string, transport *mcp.InMemoryTransport) error {
	config, err := LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	sessionPath := sessionFile
	if sessionPath == "" {
		sessionPath, err = SessionPath(config)
		if err != nil {
			return fmt.Errorf("failed to resolve session path: %w", err)
		}
	}

	manager, err := NewDefaultManager(config)
	if err != nil {
		return fmt.Errorf("failed to create image manager: %w", err)
	}

	// Create MCP server
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "image-manager",
		Version: "1.0.0",
	}, nil)

	// Register all MCP tools
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_images",
		Description: "List image files in a folder with optional recursion and sorting",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ListImagesParams) (*mcp.CallToolResult, any, error) {
		return ListImagesTool(ctx, req, args, manager, config)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rename_images",
		Description: "Batch-rename all images in a folder to '<keyword>_<n>' with collision-safe two-phase renaming",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args RenameImagesParams) (*mcp.CallToolResult, any, error) {
		return RenameImagesTool(ctx, req, args, manager)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "trash_images",
		Description: "Move files to the operating system trash",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args TrashImagesParams) (*mcp.CallToolResult, any, error) {
		return TrashImagesTool(ctx, req, args, manager)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_keyword",
		Description: "Validate a rename keyword and get suggestions for invalid keywords",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ValidateKeywordParams) (*mcp.CallToolResult, any, error) {
		return ValidateKeywordTool(ctx, req, args, manager)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_session",
		Description: "Read the persisted browsing session state",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GetSessionParams) (*mcp.CallToolResult, any, error) {
		return GetSessionTool(ctx, req, args, sessionPath)
	})

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Use provided transport or default to stdio
	if transport != nil {
		// Use the provided InMemoryTransport for testing
		return server.Run(ctx, transport)
	} else {
		// Use stdio transport for production
		return server.Run(ctx, &mcp.StdioTransport{})
	}
}
