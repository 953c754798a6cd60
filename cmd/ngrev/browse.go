package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"ngrev/internal/channel"
	"ngrev/internal/client"
	"ngrev/internal/engine"
	"ngrev/internal/project"
	"ngrev/internal/slogutil"
	"ngrev/internal/watcher"
)

var (
	browseAddr   string
	browseFormat string
	browseWatch  bool
)

var browseCmd = &cobra.Command{
	Use:   "browse [project]",
	Short: "Browse a project interactively through a served worker",
	Long: `Connect to a worker started with 'ngrev serve' and navigate interactively.
Type 'help' at the prompt for the list of commands.

Examples:
  ngrev browse ./demo
  ngrev browse --addr 127.0.0.1:9000 --format=json
  ngrev browse --watch ./demo     # reload when project files change`,
	Args: cobra.MaximumNArgs(1),
	Run:  runBrowse,
}

func init() {
	browseCmd.Flags().StringVar(&browseAddr, "addr", "", "Worker address (default: channel.address from config)")
	browseCmd.Flags().StringVar(&browseFormat, "format", "human", "Output format (json, human)")
	browseCmd.Flags().BoolVar(&browseWatch, "watch", false, "Reload the project when its files change")
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) {
	s := loadSettings("")
	defer s.close()

	addr := browseAddr
	if addr == "" {
		addr = s.cfg.Channel.Address
	}

	ctx, cancel := newContext()
	defer cancel()

	codec, err := channel.NewCodec(s.cfg.Channel.CompressThresholdBytes)
	exitOnError("creating codec", err)
	defer codec.Close()

	logger := s.logger(slogutil.SubsystemClient)
	timeout := time.Duration(s.cfg.Channel.RequestTimeoutMs) * time.Millisecond
	conn, err := channel.Dial(ctx, addr, codec, timeout, logger)
	exitOnError("connecting to worker", err)
	defer conn.Close()

	sm, err := client.NewStateManager(conn, client.Options{
		Logger:          logger,
		MetadataEntries: s.cfg.Cache.MetadataEntries,
	})
	exitOnError("creating state manager", err)

	b := &browser{sm: sm, out: cmd.OutOrStdout(), format: OutputFormat(browseFormat)}
	if browseWatch {
		b.watcher = watcher.New(watcher.Config{
			DebounceMs:     s.cfg.Watch.DebounceMs,
			PollInterval:   time.Duration(s.cfg.Watch.PollIntervalMs) * time.Millisecond,
			IgnorePatterns: s.cfg.Watch.IgnorePatterns,
		}, logger, func(root string, events []watcher.Event) {
			b.reload(ctx, root, events)
		})
		defer b.watcher.Stop()
	}
	if len(args) == 1 {
		if _, err := b.exec(ctx, "load "+args[0]); err != nil {
			fmt.Fprintf(b.out, "! %v\n", err)
		}
	}
	b.run(ctx, cmd.InOrStdin())
}

// browser is the interactive front of a StateManager. mu serializes
// commands with watcher reloads.
type browser struct {
	sm      *client.StateManager
	out     io.Writer
	format  OutputFormat
	project string

	mu          sync.Mutex
	watcher     *watcher.Watcher
	watchedRoot string
}

const browseHelp = `Commands:
  load <project>     load a project
  go <id>            navigate to a node
  back               go to the previous graph
  crumbs             list the navigation history
  restore <n>        jump back to history entry n
  app                show the application view
  libs               toggle library modules in the application view
  modules            toggle modules-only in the application view
  meta <id>          show the metadata of a node
  search <query>     search symbols
  symbols            list navigable symbols
  show               print the current graph
  quit               leave`

func (b *browser) run(ctx context.Context, in io.Reader) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(b.out, "ngrev> ")
		if !scanner.Scan() {
			fmt.Fprintln(b.out)
			return
		}
		b.mu.Lock()
		quit, err := b.exec(ctx, scanner.Text())
		if err != nil {
			fmt.Fprintf(b.out, "! %v\n", err)
		}
		b.mu.Unlock()
		if quit || ctx.Err() != nil {
			return
		}
	}
}

// exec runs one command line. It reports whether the session should end.
func (b *browser) exec(ctx context.Context, line string) (bool, error) {
	verb, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch verb {
	case "":
		return false, nil
	case "quit", "exit":
		return true, nil
	case "help", "?":
		fmt.Fprintln(b.out, browseHelp)
		return false, nil
	}

	var (
		mem *client.Memento
		err error
	)
	switch verb {
	case "load":
		if arg == "" {
			return false, fmt.Errorf("usage: load <project>")
		}
		if mem, err = b.sm.Load(ctx, arg); err == nil {
			b.project = arg
			b.watchProject(arg)
		}
	case "go":
		if arg == "" {
			return false, fmt.Errorf("usage: go <id>")
		}
		if mem, err = b.sm.Navigate(ctx, arg); err == nil && mem == nil {
			fmt.Fprintf(b.out, "%s cannot be opened from here\n", arg)
			return false, nil
		}
	case "back":
		if mem, err = b.sm.Back(ctx); err == nil && mem == nil {
			fmt.Fprintln(b.out, "Already at the first graph")
			return false, nil
		}
	case "crumbs":
		for i, title := range b.sm.Breadcrumbs() {
			fmt.Fprintf(b.out, "%3d. %s\n", i+1, title)
		}
		return false, nil
	case "restore":
		n, convErr := strconv.Atoi(arg)
		history := b.sm.History()
		if convErr != nil || n < 1 || n > len(history) {
			return false, fmt.Errorf("usage: restore <1..%d>", len(history))
		}
		if err = b.sm.RestoreMemento(ctx, history[n-1]); err == nil {
			mem = b.sm.Current()
		}
	case "app":
		mem, err = b.sm.ShowApplication(ctx)
	case "libs", "modules":
		toggle := b.sm.ToggleLibs
		if verb == "modules" {
			toggle = b.sm.ToggleModulesOnly
		}
		view, toggleErr := toggle(ctx)
		if toggleErr != nil {
			return false, toggleErr
		}
		fmt.Fprintf(b.out, "showLibs=%v modulesOnly=%v\n", view.ShowLibs, view.ModulesOnly)
		mem = b.sm.Current()
	case "meta":
		md, metaErr := b.sm.Metadata(ctx, arg)
		if metaErr != nil {
			return false, metaErr
		}
		return false, b.print(&MetadataResponseCLI{ID: arg, Metadata: md})
	case "search":
		results, searchErr := b.sm.Search(ctx, arg, engine.DefaultSearchLimit)
		if searchErr != nil {
			return false, searchErr
		}
		return false, b.print(&SearchResponseCLI{Query: arg, TotalMatches: len(results), Results: results})
	case "symbols":
		symbols, symErr := b.sm.Symbols(ctx)
		if symErr != nil {
			return false, symErr
		}
		return false, b.print(&SymbolsResponseCLI{Project: b.project, Total: len(symbols), Symbols: symbols})
	case "show":
		mem, err = b.sm.Refresh(ctx)
	default:
		return false, fmt.Errorf("unknown command %q (try help)", verb)
	}

	if err != nil {
		return false, err
	}
	return false, b.show(mem)
}

// watchProject moves the watcher to the directory holding path's manifest
func (b *browser) watchProject(path string) {
	if b.watcher == nil {
		return
	}
	root, err := manifestRoot(path)
	if err != nil {
		fmt.Fprintf(b.out, "! not watching %s: %v\n", path, err)
		return
	}
	if root == b.watchedRoot {
		return
	}
	if b.watchedRoot != "" {
		b.watcher.Unwatch(b.watchedRoot)
		b.watchedRoot = ""
	}
	if err := b.watcher.Watch(root); err != nil {
		fmt.Fprintf(b.out, "! not watching %s: %v\n", root, err)
		return
	}
	b.watchedRoot = root
}

// reload reloads the current project after a batch of changes under root.
// Reloading resets the navigation history.
func (b *browser) reload(ctx context.Context, root string, events []watcher.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if root != b.watchedRoot || b.project == "" {
		return
	}
	fmt.Fprintf(b.out, "\n* %d file(s) changed, reloading %s\n", len(events), b.project)
	mem, err := b.sm.Load(ctx, b.project)
	if err == nil {
		err = b.show(mem)
	}
	if err != nil {
		fmt.Fprintf(b.out, "! %v\n", err)
	}
}

func manifestRoot(path string) (string, error) {
	manifest, err := project.DetectManifest(path)
	if err != nil {
		return "", err
	}
	return filepath.Abs(filepath.Dir(manifest))
}

func (b *browser) show(mem *client.Memento) error {
	resp := &GraphResponseCLI{
		Project:     b.project,
		HistoryLen:  b.sm.Len(),
		Breadcrumbs: b.sm.Breadcrumbs(),
	}
	if mem != nil {
		resp.Config = &mem.Config
	}
	return b.print(resp)
}

func (b *browser) print(resp interface{}) error {
	output, err := FormatResponse(resp, b.format)
	if err != nil {
		return err
	}
	fmt.Fprintln(b.out, output)
	return nil
}
