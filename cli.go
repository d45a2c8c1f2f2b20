package imagemanager

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RunCmdOptions contains options for customizing RunCmd behavior
type RunCmdOptions struct {
	// MCPTransport allows providing a custom transport for MCP server (used for testing)
	MCPTransport *mcp.InMemoryTransport
	// Stdout writer for normal output (defaults to os.Stdout)
	Stdout io.Writer
	// Stderr writer for error output (defaults to os.Stderr)
	Stderr io.Writer
}

// commandContext holds runtime context for command execution
type commandContext struct {
	stdout      io.Writer
	stderr      io.Writer
	manager     Manager
	config      *Config
	session     *Session
	sessionPath string
}

func RunCmd(args []string, options *RunCmdOptions) error {
	stdout := io.Writer(os.Stdout)
	stderr := io.Writer(os.Stderr)
	if options != nil {
		if options.Stdout != nil {
			stdout = options.Stdout
		}
		if options.Stderr != nil {
			stderr = options.Stderr
		}
	}

	if len(args) < 1 {
		return ShowHelp(stdout)
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)

	var (
		help        = fs.Bool("h", false, "Show help")
		mcpOption   = fs.Bool("mcp", false, "Run as MCP server")
		verbose     = fs.Bool("v", false, "Verbose output")
		dryRun      = fs.Bool("dry-run", false, "Show what would be changed without making changes")
		configFile  = fs.String("config", "", "Path to configuration file")
		sessionFile = fs.String("session", "", "Path to session state file")
	)

	if len(args) > 1 {
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
	}

	if *help {
		return ShowHelp(stdout)
	}

	if *mcpOption {
		var transport *mcp.InMemoryTransport
		if options != nil && options.MCPTransport != nil {
			transport = options.MCPTransport
		}
		return RunMCPServer(*configFile, *sessionFile, transport)
	}

	remaining := fs.Args()
	if len(remaining) == 0 {
		return ShowHelp(stdout)
	}

	config, err := LoadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	sessionPath := *sessionFile
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
	if *verbose {
		manager.SetLogSink(slog.New(slog.NewTextHandler(stderr, nil)))
	}

	cmdCtx := &commandContext{
		stdout:      stdout,
		stderr:      stderr,
		manager:     manager,
		config:      config,
		session:     LoadSession(sessionPath),
		sessionPath: sessionPath,
	}

	ctx := context.Background()

	switch remaining[0] {
	case "list":
		return listCommand(ctx, cmdCtx, remaining[1:])
	case "rename":
		return renameCommand(ctx, cmdCtx, remaining[1:], *dryRun)
	case "trash":
		return trashCommandCLI(ctx, cmdCtx, remaining[1:])
	case "next", "prev", "random":
		return navCommand(ctx, cmdCtx, remaining[0], remaining[1:])
	case "session":
		return sessionCommand(cmdCtx, remaining[1:])
	case "keywords":
		return keywordsCommand(cmdCtx, remaining[1:])
	default:
		return fmt.Errorf("unknown command: %s", remaining[0])
	}
}

func ShowHelp(w io.Writer) error {
	help := `Image Manager - Browse, rename, and clean up image folders

Usage:
  image-manager [OPTIONS] COMMAND [ARGS...]
  image-manager -mcp              Run as MCP server

Options:
  -h, --help           Show this help message
  -v, --verbose        Enable verbose output
  --dry-run            Preview changes without modifying files
  --config FILE        Path to configuration file
  --session FILE       Path to session state file
  -mcp                 Run as MCP server

Commands:
  list         List images in a folder
  rename       Batch-rename images to "<keyword>_<n>" with a two-phase pass
  trash        Move files to the OS trash
  next         Step to the next image and remember it
  prev         Step to the previous image and remember it
  random       Jump to a random image and remember it
  session      Show the persisted session state
  keywords     List, add, or remove rename keywords

Examples:
  image-manager list --root="/photos/trip" --sort=name --asc
  image-manager rename --root="/photos/trip" --keyword="beach" --dry-run
  image-manager rename --root="/photos/trip" --keyword="beach" --current="/photos/trip/IMG_0042.jpg"
  image-manager trash --files="/photos/trip/blurry.jpg"
  image-manager next --root="/photos/trip"
  image-manager keywords --add="vacation"
  image-manager -mcp --config="/path/to/config.yaml"
`
	_, _ = fmt.Fprint(w, help)
	return nil
}

func listCommand(ctx context.Context, cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)

	root := fs.String("root", cmdCtx.session.LastFolder, "Folder to list")
	recursive := fs.Bool("recursive", cmdCtx.config.Recursive, "Include subfolders")
	sortMode := fs.String("sort", string(cmdCtx.session.SortMode), "Sort mode: name or date")
	ascending := fs.Bool("asc", cmdCtx.session.SortAscending, "Sort ascending")
	jsonOutput := fs.Bool("json", false, "Output as JSON")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *root == "" {
		return fmt.Errorf("--root is required (no folder in session)")
	}
	absRoot, err := filepath.Abs(*root)
	if err != nil {
		return err
	}

	images, err := cmdCtx.manager.ListImages(ctx, absRoot, ListOptions{
		Recursive: *recursive,
		Sort:      SortMode(*sortMode),
		Ascending: *ascending,
	})
	if err != nil {
		return err
	}

	cmdCtx.session.LastFolder = absRoot
	cmdCtx.session.SortMode = SortMode(*sortMode)
	cmdCtx.session.SortAscending = *ascending
	if err := SaveSession(cmdCtx.sessionPath, cmdCtx.session); err != nil {
		_, _ = fmt.Fprintf(cmdCtx.stderr, "warning: failed to save session: %v\n", err)
	}

	if *jsonOutput {
		return json.NewEncoder(cmdCtx.stdout).Encode(images)
	}

	_, _ = fmt.Fprintf(cmdCtx.stdout, "\nFound %d images:\n", len(images))
	for _, img := range images {
		_, _ = fmt.Fprintf(cmdCtx.stdout, "  %s (%s)\n", img.Path, formatSize(img.Size))
	}

	return nil
}

func renameCommand(ctx context.Context, cmdCtx *commandContext, args []string, globalDryRun bool) error {
	fs := flag.NewFlagSet("rename", flag.ContinueOnError)

	root := fs.String("root", cmdCtx.session.BatchPath, "Folder whose images are renamed")
	keyword := fs.String("keyword", "", "Keyword for the new names")
	current := fs.String("current", cmdCtx.session.OpenPath, "Path whose new location should be reported")
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	localDryRun := fs.Bool("dry-run", false, "Show what would be changed without making changes")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *root == "" {
		return fmt.Errorf("--root is required (no batch folder in session)")
	}
	absRoot, err := filepath.Abs(*root)
	if err != nil {
		return err
	}

	kw := strings.TrimSpace(*keyword)
	if kw == "" {
		kw = cmdCtx.session.LastKeyword
	}
	if kw == "" {
		return fmt.Errorf("--keyword is required")
	}

	if globalDryRun || *localDryRun {
		plan, err := cmdCtx.manager.PlanKeywordRename(ctx, absRoot, kw)
		if err != nil {
			return err
		}

		if *jsonOutput {
			return json.NewEncoder(cmdCtx.stdout).Encode(plan)
		}

		_, _ = fmt.Fprintln(cmdCtx.stdout, "DRY RUN MODE - No files will be modified")
		for _, entry := range plan.Entries {
			if entry.Conflict {
				_, _ = fmt.Fprintf(cmdCtx.stdout, "  %s -> %s (SKIP: %s)\n", entry.Source, entry.Destination, entry.Reason)
			} else {
				_, _ = fmt.Fprintf(cmdCtx.stdout, "  %s -> %s\n", entry.Source, entry.Destination)
			}
		}
		return nil
	}

	result, err := cmdCtx.manager.KeywordRename(ctx, absRoot, kw, *current)
	if err != nil {
		return err
	}

	cmdCtx.session.LastKeyword = kw
	cmdCtx.session.BatchPath = absRoot
	if result.Replacement != "" && *current != "" && *current == cmdCtx.session.OpenPath {
		cmdCtx.session.OpenPath = result.Replacement
	}
	if err := SaveSession(cmdCtx.sessionPath, cmdCtx.session); err != nil {
		_, _ = fmt.Fprintf(cmdCtx.stderr, "warning: failed to save session: %v\n", err)
	}

	if *jsonOutput {
		return json.NewEncoder(cmdCtx.stdout).Encode(result)
	}

	_, _ = fmt.Fprintf(cmdCtx.stdout, "\nRenamed: %d  Skipped: %d  Failed: %d\n", result.Renamed, result.Skipped, result.Failed)
	if result.Replacement != "" {
		_, _ = fmt.Fprintf(cmdCtx.stdout, "Current image is now: %s\n", result.Replacement)
	}

	return nil
}

func trashCommandCLI(ctx context.Context, cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("trash", flag.ContinueOnError)

	files := fs.String("files", "", "Comma-separated list of file paths")
	jsonOutput := fs.Bool("json", false, "Output as JSON")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *files == "" {
		return fmt.Errorf("--files is required")
	}

	var paths []string
	for _, part := range strings.Split(*files, ",") {
		if path := strings.TrimSpace(part); path != "" {
			paths = append(paths, path)
		}
	}
	if len(paths) == 0 {
		return fmt.Errorf("no valid file paths provided")
	}

	result := cmdCtx.manager.MoveToTrash(ctx, paths)

	for _, trashed := range result.Trashed {
		if trashed == cmdCtx.session.OpenPath {
			cmdCtx.session.OpenPath = ""
			if err := SaveSession(cmdCtx.sessionPath, cmdCtx.session); err != nil {
				_, _ = fmt.Fprintf(cmdCtx.stderr, "warning: failed to save session: %v\n", err)
			}
			break
		}
	}

	if *jsonOutput {
		return json.NewEncoder(cmdCtx.stdout).Encode(result)
	}

	_, _ = fmt.Fprintf(cmdCtx.stdout, "\nTrashed files: %d\n", len(result.Trashed))
	if len(result.Failed) > 0 {
		_, _ = fmt.Fprintf(cmdCtx.stdout, "\nFailed files: %d\n", len(result.Failed))
		for i, file := range result.Failed {
			_, _ = fmt.Fprintf(cmdCtx.stdout, "  %s: %s\n", file, result.Errors[i])
		}
	}

	return nil
}

func navCommand(ctx context.Context, cmdCtx *commandContext, direction string, args []string) error {
	fs := flag.NewFlagSet(direction, flag.ContinueOnError)

	root := fs.String("root", cmdCtx.session.LastFolder, "Folder to browse")
	jsonOutput := fs.Bool("json", false, "Output as JSON")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *root == "" {
		return fmt.Errorf("--root is required (no folder in session)")
	}
	absRoot, err := filepath.Abs(*root)
	if err != nil {
		return err
	}

	images, err := cmdCtx.manager.ListImages(ctx, absRoot, ListOptions{
		Recursive: cmdCtx.config.Recursive,
		Sort:      cmdCtx.session.SortMode,
		Ascending: cmdCtx.session.SortAscending,
	})
	if err != nil {
		return err
	}
	if len(images) == 0 {
		return fmt.Errorf("no images in %s", absRoot)
	}

	nav := NewNavigator(images)
	positioned := cmdCtx.session.OpenPath != "" && nav.SetCurrent(cmdCtx.session.OpenPath)

	var img ImageInfo
	var ok bool
	switch direction {
	case "next":
		if positioned {
			img, ok = nav.Next()
		} else {
			// No remembered image, stepping starts at the first one.
			img, ok = nav.Current()
		}
	case "prev":
		if positioned {
			img, ok = nav.Prev()
		} else {
			img, ok = nav.Current()
		}
	case "random":
		img, ok = nav.Random()
	}
	if !ok {
		_, _ = fmt.Fprintf(cmdCtx.stdout, "no %s image\n", direction)
		return nil
	}

	cmdCtx.session.LastFolder = absRoot
	cmdCtx.session.OpenPath = img.Path
	if err := SaveSession(cmdCtx.sessionPath, cmdCtx.session); err != nil {
		_, _ = fmt.Fprintf(cmdCtx.stderr, "warning: failed to save session: %v\n", err)
	}

	if *jsonOutput {
		return json.NewEncoder(cmdCtx.stdout).Encode(img)
	}

	_, _ = fmt.Fprintf(cmdCtx.stdout, "%s\n", img.Path)
	return nil
}

func sessionCommand(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("session", flag.ContinueOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *jsonOutput {
		return json.NewEncoder(cmdCtx.stdout).Encode(cmdCtx.session)
	}

	s := cmdCtx.session
	_, _ = fmt.Fprintf(cmdCtx.stdout, "Last folder:   %s\n", s.LastFolder)
	_, _ = fmt.Fprintf(cmdCtx.stdout, "Open image:    %s\n", s.OpenPath)
	_, _ = fmt.Fprintf(cmdCtx.stdout, "Sort:          %s (ascending: %v)\n", s.SortMode, s.SortAscending)
	_, _ = fmt.Fprintf(cmdCtx.stdout, "Last keyword:  %s\n", s.LastKeyword)
	_, _ = fmt.Fprintf(cmdCtx.stdout, "Batch folder:  %s\n", s.BatchPath)
	_, _ = fmt.Fprintf(cmdCtx.stdout, "Keywords:      %s\n", strings.Join(s.Keywords, ", "))
	return nil
}

func keywordsCommand(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("keywords", flag.ContinueOnError)

	addKeyword := fs.String("add", "", "Keyword to add")
	removeKeyword := fs.String("remove", "", "Keyword to remove")
	jsonOutput := fs.Bool("json", false, "Output as JSON")

	if err := fs.Parse(args); err != nil {
		return err
	}

	changed := false

	if *addKeyword != "" {
		cleaned := strings.TrimSpace(*addKeyword)
		result := cmdCtx.manager.ValidateKeyword(cleaned, cmdCtx.session.Keywords)
		if !result.IsValid {
			return fmt.Errorf("invalid keyword: %s", strings.Join(result.Issues, "; "))
		}
		changed = cmdCtx.session.AddKeyword(cleaned) || changed
	}

	if *removeKeyword != "" {
		if !cmdCtx.session.RemoveKeyword(strings.TrimSpace(*removeKeyword)) {
			return fmt.Errorf("unknown keyword: %s", *removeKeyword)
		}
		changed = true
	}

	if changed {
		if err := SaveSession(cmdCtx.sessionPath, cmdCtx.session); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
	}

	if *jsonOutput {
		return json.NewEncoder(cmdCtx.stdout).Encode(cmdCtx.session.Keywords)
	}

	_, _ = fmt.Fprintf(cmdCtx.stdout, "\nKeywords (%d):\n", len(cmdCtx.session.Keywords))
	for _, kw := range cmdCtx.session.Keywords {
		_, _ = fmt.Fprintf(cmdCtx.stdout, "  %s\n", kw)
	}

	return nil
}

func formatSize(numBytes int64) string {
	const step = 1024.0
	units := []string{"KB", "MB", "GB", "TB"}
	if numBytes < 1024 {
		return fmt.Sprintf("%dB", numBytes)
	}
	size := float64(numBytes)
	unit := "B"
	for _, u := range units {
		size /= step
		unit = u
		if size < step {
			break
		}
	}
	return fmt.Sprintf("%.2f%s", size, unit)
}
