package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/swarmcom/swarm/internal/config"
)

var (
	logsFollow bool
	logsLines  int
	logsFile   string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View daemon logs",
	Long: `Display the last lines of the daemon log file.

With -f the file is followed; output continues across daily rotation
and after the daemon recreates a deleted log file.`,
	Run: func(cmd *cobra.Command, args []string) {
		path := logsFile
		if path == "" {
			path = configuredLogFile()
		}

		offset, err := printTail(os.Stdout, path, logsLines)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", path, err)
			os.Exit(1)
		}
		if !logsFollow {
			return
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := followFile(ctx, os.Stdout, path, offset); err != nil {
			fmt.Fprintf(os.Stderr, "failed to follow %s: %v\n", path, err)
			os.Exit(1)
		}
	},
}

func configuredLogFile() string {
	if store, err := loadStore(nil); err == nil {
		if cfg, err := config.Load(store); err == nil {
			return cfg.Logging.File
		}
	}
	return config.Default().Logging.File
}

// printTail writes the last n lines of path to w and returns the offset
// the output ended at. n <= 0 prints the whole file.
func printTail(w io.Writer, path string, n int) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var (
		ring   = make([]string, 0, max(n, 0))
		next   int
		offset int64
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		offset += int64(len(scanner.Bytes())) + 1
		switch {
		case n <= 0:
			fmt.Fprintln(w, line)
		case len(ring) < n:
			ring = append(ring, line)
		default:
			ring[next] = line
			next = (next + 1) % n
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}

	for i := range ring {
		fmt.Fprintln(w, ring[(next+i)%len(ring)])
	}

	// The last line may lack a newline.
	if info, err := f.Stat(); err == nil && offset > info.Size() {
		offset = info.Size()
	}
	return offset, nil
}

// followFile copies data appended to path after offset to w until ctx is
// done. A recreated or truncated file is read from the start.
func followFile(ctx context.Context, w io.Writer, path string, offset int64) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	path = filepath.Clean(path)
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	// Pick up anything written between the initial read and the watch.
	if offset, err = copyFrom(w, path, offset); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			switch {
			case ev.Has(fsnotify.Create):
				offset = 0
			case !ev.Has(fsnotify.Write):
				continue
			}
			if offset, err = copyFrom(w, path, offset); err != nil {
				return err
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

func copyFrom(w io.Writer, path string, offset int64) (int64, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return offset, err
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.Size() < offset {
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return offset, err
	}
	n, err := io.Copy(w, f)
	return offset + n, err
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 50, "Number of lines to show (0 for all)")
	logsCmd.Flags().StringVar(&logsFile, "file", "", "Log file to read (default from configuration)")
	rootCmd.AddCommand(logsCmd)
}
