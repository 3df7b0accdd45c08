// Command devrepl-cli is an interactive client for a devrepl server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/peterh/liner"
	"github.com/tidwall/gjson"
	nreplclient "github.com/uber/devrepl/src/devrepl/gateway/nrepl-client"
	"github.com/uber/devrepl/src/devrepl/internal/fs"
	"github.com/uber/devrepl/src/devrepl/internal/serverinfofile"
	"go.uber.org/zap"
)

const (
	_historyFile     = ".devrepl_history"
	_defaultInfoFile = ".devrepl/server-info.json"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("devrepl-cli", flag.ContinueOnError)
	addr := flags.String("addr", "", "server address; read from the server info file when empty")
	infoFile := flags.String("info", defaultInfoFile(), "server info file written by the devrepl server")
	timeout := flags.Duration("timeout", 5*time.Second, "connection timeout")
	verbose := flags.Bool("v", false, "log client diagnostics to stderr")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	logger := zap.NewNop()
	if *verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			logger = l
		}
	}
	defer logger.Sync()

	fsys := fs.New()
	address, err := resolveAddress(fsys, *addr, *infoFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}

	dialCtx, cancel := context.WithTimeout(context.Background(), *timeout)
	client, err := nreplclient.Dial(dialCtx, address, logger)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}
	defer client.Close()

	if _, err := client.Clone(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := filepath.Join(os.Getenv("HOME"), _historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Printf("Connected to %s (session %s). Type :help for commands.\n", address, client.Session())

	r := &repl{client: client, fs: fsys, out: os.Stdout, color: true}
	for {
		input, ok := readInput(ln)
		if !ok {
			return 0
		}
		ln.AppendHistory(input)

		// Ctrl+C while a request is running abandons it.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		quit, err := r.submit(ctx, input)
		stop()
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
		}
		if quit {
			return 0
		}
	}
}

func defaultInfoFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, _defaultInfoFile)
}

// resolveAddress prefers an explicit address and falls back to the one published by a running
// server.
func resolveAddress(fsys fs.DevreplFS, addr, infoFile string) (string, error) {
	if addr != "" {
		return addr, nil
	}
	if infoFile == "" {
		return "", fmt.Errorf("no address given and no server info file configured")
	}
	data, err := fsys.ReadFile(infoFile)
	if err != nil {
		return "", fmt.Errorf("reading server info file: %w", err)
	}
	res := gjson.GetBytes(data, serverinfofile.FieldAddress)
	if !res.Exists() || res.String() == "" {
		return "", fmt.Errorf("server info file %s has no %q field", infoFile, serverinfofile.FieldAddress)
	}
	return res.String(), nil
}
