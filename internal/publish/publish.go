package publish

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"ainews/internal/config"
)

// pushTimeout bounds one rsync run.
const pushTimeout = 120 * time.Second

// Configured reports whether a remote publish target is set up.
// The placeholder host from the sample config counts as unset.
func Configured(cfg config.Publish) bool {
	return cfg.RemoteHost != "" && cfg.RemoteHost != "your-server.com"
}

// Push syncs siteDir to the configured remote host with rsync over ssh.
// An unconfigured target is a no-op, not an error.
func Push(ctx context.Context, cfg config.Publish, siteDir string) error {
	if !Configured(cfg) {
		log.Printf("[publish] remote host not configured, skipping push")
		return nil
	}

	args := buildArgs(cfg, siteDir)
	dest := args[len(args)-1]
	log.Printf("[publish] pushing %s to %s", siteDir, dest)

	ctx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "rsync", args...).CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("rsync timed out after %s", pushTimeout)
		}
		return fmt.Errorf("rsync: %w: %s", err, strings.TrimSpace(string(out)))
	}

	log.Printf("[publish] pushed to %s", dest)
	return nil
}

// buildArgs assembles the rsync argument list. The source directory gets
// a trailing slash so rsync copies its contents, not the directory itself.
func buildArgs(cfg config.Publish, siteDir string) []string {
	args := []string{"-az", "--delete"}

	if cfg.SSHKey != "" {
		args = append(args, "-e",
			fmt.Sprintf("ssh -i %s -o StrictHostKeyChecking=no", expandHome(cfg.SSHKey)))
	}

	dest := cfg.RemoteHost + ":" + cfg.RemotePath
	if cfg.RemoteUser != "" {
		dest = cfg.RemoteUser + "@" + dest
	}

	return append(args, strings.TrimRight(siteDir, "/")+"/", dest)
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
