package reminder

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileNotifier hands a batch to a CI workflow through two files: a bodies
// file with one "<recipient>:<body>" entry per notification, and a
// key=value output file (GITHUB_OUTPUT) that is appended to.
type FileNotifier struct {
	BodiesPath string
	OutputPath string
}

func (n FileNotifier) Emit(_ context.Context, batch *Batch) error {
	if err := n.writeBodies(batch); err != nil {
		return err
	}
	return n.appendOutputs(batch)
}

func (n FileNotifier) writeBodies(batch *Batch) error {
	if err := ensureDir(n.BodiesPath); err != nil {
		return err
	}
	f, err := os.Create(n.BodiesPath)
	if err != nil {
		return fmt.Errorf("reminder: creating bodies file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i, recipient := range batch.Recipients {
		if _, err := fmt.Fprintf(w, "%s:%s\n", recipient, batch.Bodies[i]); err != nil {
			return fmt.Errorf("reminder: writing bodies file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("reminder: writing bodies file: %w", err)
	}
	return f.Close()
}

func (n FileNotifier) appendOutputs(batch *Batch) error {
	if err := ensureDir(n.OutputPath); err != nil {
		return err
	}
	f, err := os.OpenFile(n.OutputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("reminder: opening output file: %w", err)
	}
	defer f.Close()

	out := fmt.Sprintf("recipients=%s\nemail_bodies=%s\npost_count=%d\n",
		strings.Join(batch.Recipients, ","), n.BodiesPath, batch.DueCount)
	if _, err := f.WriteString(out); err != nil {
		return fmt.Errorf("reminder: writing output file: %w", err)
	}
	return f.Close()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("reminder: creating %s: %w", dir, err)
	}
	return nil
}
