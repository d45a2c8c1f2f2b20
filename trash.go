package imagemanager

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// trashCommand builds the platform shell command that relocates path to the
// OS trash. A failed trash is reported, never escalated to a permanent
// delete.
func trashCommand(ctx context.Context, path string) (*exec.Cmd, error) {
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`tell application "Finder" to delete POSIX file %q`, path)
		return exec.CommandContext(ctx, "osascript", "-e", script), nil
	case "linux":
		return exec.CommandContext(ctx, "gio", "trash", path), nil
	case "windows":
		script := fmt.Sprintf(`Add-Type -AssemblyName Microsoft.VisualBasic; [Microsoft.VisualBasic.FileIO.FileSystem]::DeleteFile('%s', 'OnlyErrorDialogs', 'SendToRecycleBin')`, path)
		return exec.CommandContext(ctx, "powershell", "-Command", script), nil
	default:
		return nil, fmt.Errorf("trash not supported on %s", runtime.GOOS)
	}
}

func trashFile(ctx context.Context, path string) error {
	cmd, err := trashCommand(ctx, path)
	if err != nil {
		return err
	}
	if out, err := cmd.CombinedOutput(); err != nil {
		if len(out) > 0 {
			return fmt.Errorf("%w: %s", err, out)
		}
		return err
	}
	return nil
}
