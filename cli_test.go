package imagemanager_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	imagemanager "github.com/renloe/image-manager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLIIntegration(t *testing.T) {
	tempDir := t.TempDir()
	writeFiles(t, tempDir, "a.jpg", "b.jpg", "notes.txt")
	sessionPath := filepath.Join(t.TempDir(), "session.json")

	tests := []struct {
		name        string
		args        []string
		expectError bool
	}{
		{
			name: "Help",
			args: []string{"image-manager", "-h"},
		},
		{
			name: "ListCommand",
			args: []string{"image-manager", "--session=" + sessionPath, "list", "--root=" + tempDir, "--json"},
		},
		{
			name: "ListSortedByName",
			args: []string{"image-manager", "--session=" + sessionPath, "list", "--root=" + tempDir, "--sort=name", "--asc", "--json"},
		},
		{
			name: "RenameDryRun",
			args: []string{"image-manager", "--session=" + sessionPath, "rename", "--root=" + tempDir, "--keyword=beach", "--dry-run", "--json"},
		},
		{
			name: "NextCommand",
			args: []string{"image-manager", "--session=" + sessionPath, "next", "--root=" + tempDir, "--json"},
		},
		{
			name: "RandomCommand",
			args: []string{"image-manager", "--session=" + sessionPath, "random", "--root=" + tempDir, "--json"},
		},
		{
			name: "SessionCommand",
			args: []string{"image-manager", "--session=" + sessionPath, "session", "--json"},
		},
		{
			name: "KeywordsAdd",
			args: []string{"image-manager", "--session=" + sessionPath, "keywords", "--add=vacation", "--json"},
		},
		{
			name: "KeywordsList",
			args: []string{"image-manager", "--session=" + sessionPath, "keywords", "--json"},
		},
		{
			name:        "KeywordsAddInvalid",
			args:        []string{"image-manager", "--session=" + sessionPath, "keywords", "--add=bad/keyword"},
			expectError: true,
		},
		{
			name:        "InvalidCommand",
			args:        []string{"image-manager", "--session=" + sessionPath, "invalid"},
			expectError: true,
		},
		{
			name:        "RenameMissingKeyword",
			args:        []string{"image-manager", "--session=" + filepath.Join(t.TempDir(), "fresh.json"), "rename", "--root=" + tempDir},
			expectError: true,
		},
		{
			name:        "TrashMissingFiles",
			args:        []string{"image-manager", "--session=" + sessionPath, "trash"},
			expectError: true,
		},
		{
			name:        "ListNonexistentRoot",
			args:        []string{"image-manager", "--session=" + sessionPath, "list", "--root=" + filepath.Join(tempDir, "missing")},
			expectError: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := imagemanager.RunCmd(test.args, &imagemanager.RunCmdOptions{
				Stdout: &stdout,
				Stderr: &stderr,
			})
			if test.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCLIListJSONOutput(t *testing.T) {
	tempDir := t.TempDir()
	writeFiles(t, tempDir, "a.jpg", "b.jpg")
	sessionPath := filepath.Join(t.TempDir(), "session.json")

	var stdout bytes.Buffer
	err := imagemanager.RunCmd(
		[]string{"image-manager", "--session=" + sessionPath, "list", "--root=" + tempDir, "--sort=name", "--asc", "--json"},
		&imagemanager.RunCmdOptions{Stdout: &stdout},
	)
	require.NoError(t, err)

	var images []imagemanager.ImageInfo
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &images))
	require.Len(t, images, 2)
	assert.Equal(t, filepath.Join(tempDir, "a.jpg"), images[0].Path)

	// The list command remembers the folder and ordering.
	session := imagemanager.LoadSession(sessionPath)
	assert.Equal(t, tempDir, session.LastFolder)
	assert.Equal(t, imagemanager.SortByName, session.SortMode)
	assert.True(t, session.SortAscending)
}

func TestCLIRenameUpdatesSession(t *testing.T) {
	tempDir := t.TempDir()
	writeFiles(t, tempDir, "a.jpg", "b.jpg")
	sessionPath := filepath.Join(t.TempDir(), "session.json")

	var stdout bytes.Buffer
	err := imagemanager.RunCmd(
		[]string{"image-manager", "--session=" + sessionPath, "rename", "--root=" + tempDir, "--keyword=beach", "--json"},
		&imagemanager.RunCmdOptions{Stdout: &stdout},
	)
	require.NoError(t, err)

	var result imagemanager.RenameResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
	assert.Equal(t, 2, result.Renamed)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 0, result.Failed)

	session := imagemanager.LoadSession(sessionPath)
	assert.Equal(t, "beach", session.LastKeyword)
	assert.Equal(t, tempDir, session.BatchPath)
}

func TestCLINextWalksForward(t *testing.T) {
	tempDir := t.TempDir()
	paths := writeFiles(t, tempDir, "a.jpg", "b.jpg", "c.jpg")
	sessionPath := filepath.Join(t.TempDir(), "session.json")

	session := imagemanager.DefaultSession()
	session.SortMode = imagemanager.SortByName
	session.SortAscending = true
	session.OpenPath = paths[0]
	require.NoError(t, imagemanager.SaveSession(sessionPath, session))

	var stdout bytes.Buffer
	err := imagemanager.RunCmd(
		[]string{"image-manager", "--session=" + sessionPath, "next", "--root=" + tempDir, "--json"},
		&imagemanager.RunCmdOptions{Stdout: &stdout},
	)
	require.NoError(t, err)

	var img imagemanager.ImageInfo
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &img))
	assert.Equal(t, paths[1], img.Path)

	loaded := imagemanager.LoadSession(sessionPath)
	assert.Equal(t, paths[1], loaded.OpenPath)
}

func TestCLINextFreshSessionStartsAtFirst(t *testing.T) {
	tempDir := t.TempDir()
	paths := writeFiles(t, tempDir, "a.jpg", "b.jpg")
	sessionPath := filepath.Join(t.TempDir(), "session.json")

	session := imagemanager.DefaultSession()
	session.SortMode = imagemanager.SortByName
	session.SortAscending = true
	require.NoError(t, imagemanager.SaveSession(sessionPath, session))

	var stdout bytes.Buffer
	err := imagemanager.RunCmd(
		[]string{"image-manager", "--session=" + sessionPath, "next", "--root=" + tempDir, "--json"},
		&imagemanager.RunCmdOptions{Stdout: &stdout},
	)
	require.NoError(t, err)

	// Without a remembered image, next lands on the first one instead of
	// silently skipping it.
	var img imagemanager.ImageInfo
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &img))
	assert.Equal(t, paths[0], img.Path)

	loaded := imagemanager.LoadSession(sessionPath)
	assert.Equal(t, paths[0], loaded.OpenPath)
}

func TestListImagesToolDefaults(t *testing.T) {
	ctx := context.Background()
	tempDir := t.TempDir()
	paths := writeFiles(t, tempDir, "a.jpg", "b.jpg")

	config := imagemanager.DefaultConfig()
	config.SortMode = imagemanager.SortByName
	config.SortAscending = true
	manager, err := imagemanager.NewDefaultManager(config)
	require.NoError(t, err)

	t.Run("AscendingDefaultsFromConfig", func(t *testing.T) {
		_, result, err := imagemanager.ListImagesTool(ctx, nil, imagemanager.ListImagesParams{Root: tempDir}, manager, config)
		require.NoError(t, err)

		images, isSlice := result.([]imagemanager.ImageInfo)
		require.True(t, isSlice)
		require.Len(t, images, 2)
		assert.Equal(t, paths[0], images[0].Path)
	})

	t.Run("AscendingParamOverrides", func(t *testing.T) {
		descending := false
		args := imagemanager.ListImagesParams{Root: tempDir, Ascending: &descending}

		_, result, err := imagemanager.ListImagesTool(ctx, nil, args, manager, config)
		require.NoError(t, err)

		images, isSlice := result.([]imagemanager.ImageInfo)
		require.True(t, isSlice)
		require.Len(t, images, 2)
		assert.Equal(t, paths[1], images[0].Path)
	})
}

func TestCLIGlobalFlags(t *testing.T) {
	tempDir := t.TempDir()
	writeFiles(t, tempDir, "a.jpg")
	sessionPath := filepath.Join(t.TempDir(), "session.json")

	tests := []struct {
		name string
		args []string
	}{
		{
			name: "VerboseFlag",
			args: []string{"image-manager", "-v", "--session=" + sessionPath, "list", "--root=" + tempDir, "--json"},
		},
		{
			name: "DryRunFlag",
			args: []string{"image-manager", "--dry-run", "--session=" + sessionPath, "rename", "--root=" + tempDir, "--keyword=beach", "--json"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := imagemanager.RunCmd(test.args, &imagemanager.RunCmdOptions{
				Stdout: &stdout,
				Stderr: &stderr,
			})
			assert.NoError(t, err)
		})
	}

	// The dry run must not have renamed anything.
	_, err := os.Stat(filepath.Join(tempDir, "a.jpg"))
	assert.NoError(t, err)
}

func TestMCPServerCapabilities(t *testing.T) {
	t.Run("MCPServerToolDiscovery", func(t *testing.T) {
		ctx := context.Background()
		sessionPath := filepath.Join(t.TempDir(), "session.json")

		// Create in-memory transports for testing
		clientTransport, serverTransport := mcp.NewInMemoryTransports()

		// Start our MCP server in a goroutine
		serverDone := make(chan error, 1)
		go func() {
			options := &imagemanager.RunCmdOptions{
				MCPTransport: serverTransport,
			}
			serverDone <- imagemanager.RunCmd([]string{"image-manager", "-mcp", "--session=" + sessionPath}, options)
		}()

		// Create MCP client
		client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v1.0.0"}, nil)
		session, err := client.Connect(ctx, clientTransport, nil)
		require.NoError(t, err)
		defer func() {
			_ = session.Close()
		}()

		// Test that we can ping the server
		err = session.Ping(ctx, nil)
		require.NoError(t, err)

		// List available tools from the server
		tools, err := session.ListTools(ctx, &mcp.ListToolsParams{})
		require.NoError(t, err)

		expectedTools := map[string]string{
			"list_images":      "List image files in a folder with optional recursion and sorting",
			"rename_images":    "Batch-rename all images in a folder to '<keyword>_<n>' with collision-safe two-phase renaming",
			"trash_images":     "Move files to the operating system trash",
			"validate_keyword": "Validate a rename keyword and get suggestions for invalid keywords",
			"get_session":      "Read the persisted browsing session state",
		}

		foundTools := make(map[string]bool)
		for _, tool := range tools.Tools {
			if expectedDesc, expected := expectedTools[tool.Name]; expected {
				foundTools[tool.Name] = true
				assert.Equal(t, expectedDesc, tool.Description)
			} else {
				assert.Failf(t, "Unexpected tool found", "tool: %s", tool.Name)
			}
		}

		for toolName := range expectedTools {
			assert.True(t, foundTools[toolName])
		}

		assert.Len(t, tools.Tools, 5)
	})
}
