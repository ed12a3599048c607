// ringcachectl is an interactive REPL for exercising a ringcache.Cache.
//
// Usage:
//
//	ringcachectl [flags]
//
// Flags:
//
//	-p, --profile <file>    Cache profile file (JSONC, default: .ringcache.json)
//	    --size <bytes>       Override the profile's cache_size
//	    --no-resize          Disable adaptive resizing regardless of the profile
//
// Commands (in REPL):
//
//	set <key> <value> <ttl>   Insert or update an entry
//	get <key>                 Retrieve an entry
//	stats                     Show arena and cycle statistics
//	profile                   Show the active profile
//	snapshot <file>           Atomically write a JSON stats snapshot
//	help                      Show this help
//	exit / quit / q           Exit
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/spf13/pflag"

	"github.com/ringcache/ringcache/internal/config"
	"github.com/ringcache/ringcache/internal/fs"
	"github.com/ringcache/ringcache/internal/telemetry"
	"github.com/ringcache/ringcache/pkg/ringcache"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "ringcachectl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("ringcachectl", pflag.ContinueOnError)

	profilePath := flags.StringP("profile", "p", "", "cache profile file (JSONC)")
	sizeOverride := flags.Uint32("size", 0, "override the profile's cache_size")
	noResize := flags.Bool("no-resize", false, "disable adaptive resizing")
	logLevel := flags.String("log-level", "info", "log level: debug, info, warn, error")

	if err := flags.Parse(args); err != nil {
		return err
	}

	telemetry.SetLevelFromString(*logLevel)

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	profile, err := config.Load(workDir, *profilePath, os.Environ())
	if err != nil {
		return fmt.Errorf("loading profile: %w", err)
	}

	if *sizeOverride != 0 {
		profile.CacheSize = *sizeOverride
	}

	if *noResize {
		profile.AllowResize = ringcache.AllowResizeBool(false)
	}

	opts := &ringcache.Options{
		AllowResize:     profile.AllowResize,
		TargetCycleTime: profile.TargetCycleTimeDuration(),
		PinMemory:       profile.PinMemory,
		Logger:          telemetry.With("ringcachectl"),
	}

	cache := ringcache.New(profile.CacheSize, opts)
	defer cache.Destroy()

	realFS := fs.NewReal()

	repl := &repl{
		cache:   cache,
		profile: profile,
		fs:      realFS,
		locker:  fs.NewLocker(realFS),
	}

	return repl.run()
}

// snapshotLockTimeout bounds how long "snapshot" waits for a concurrent
// ringcachectl invocation to release the lock on the same snapshot path.
const snapshotLockTimeout = 2 * time.Second

type repl struct {
	cache   *ringcache.Cache
	profile config.Profile
	fs      fs.FS
	locker  *fs.Locker
	liner   *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".ringcachectl_history")
}

func (r *repl) run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("ringcachectl (cache_size=%d)\n", r.profile.CacheSize)
	fmt.Println("Type 'help' for available commands.")

	for {
		line, err := r.liner.Prompt("ringcache> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Println("\nBye!")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		cmdArgs := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			r.saveHistory()

			return nil
		case "help", "?":
			r.printHelp()
		case "set":
			r.cmdSet(cmdArgs)
		case "get":
			r.cmdGet(cmdArgs)
		case "stats":
			r.cmdStats()
		case "profile":
			r.cmdProfile()
		case "snapshot":
			r.cmdSnapshot(cmdArgs)
		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()

	return nil
}

func (r *repl) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *repl) completer(line string) []string {
	commands := []string{"set", "get", "stats", "profile", "snapshot", "help", "exit", "quit", "q"}

	var completions []string

	lower := strings.ToLower(line)

	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}

func (r *repl) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  set <key> <value> <ttl>   Insert or update an entry")
	fmt.Println("  get <key>                 Retrieve an entry")
	fmt.Println("  stats                     Show arena and cycle statistics")
	fmt.Println("  profile                   Show the active profile")
	fmt.Println("  snapshot <file>           Atomically write a JSON stats snapshot")
	fmt.Println("  help                      Show this help")
	fmt.Println("  exit / quit / q           Exit")
}

func (r *repl) cmdSet(args []string) {
	if len(args) < 3 {
		fmt.Println("Usage: set <key> <value> <ttl>")

		return
	}

	ttl, err := strconv.ParseUint(args[2], 10, 32)
	if err != nil {
		fmt.Printf("Error parsing ttl: %v\n", err)

		return
	}

	r.cache.Set([]byte(args[0]), []byte(args[1]), uint32(ttl))
	fmt.Printf("OK: set %q (ttl=%ds)\n", args[0], ttl)
}

func (r *repl) cmdGet(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: get <key>")

		return
	}

	value, ttl, ok := r.cache.Get([]byte(args[0]))
	if !ok {
		fmt.Println("(not found)")

		return
	}

	fmt.Printf("Value: %q\n", value)
	fmt.Printf("TTL:   %ds remaining\n", ttl)
}

func (r *repl) cmdStats() {
	stats := r.cache.Stats()

	fmt.Printf("Size:       %d bytes\n", stats.Size)
	fmt.Printf("Hash index: %d bytes\n", stats.HashSize)
	fmt.Printf("Writer:     %d\n", stats.Writer)
	fmt.Printf("Oldest:     %d\n", stats.Oldest)
	fmt.Printf("Unused:     %d\n", stats.Unused)
	fmt.Printf("Motion:     %d bytes written\n", stats.Motion)
	fmt.Printf("Last ratio: %.3f\n", stats.LastRatio)
	fmt.Printf("TTL stats:  count=%d min=%d max=%d\n", stats.TTL.Count, stats.TTL.Min, stats.TTL.Max)
}

func (r *repl) cmdProfile() {
	formatted, err := config.Format(r.profile)
	if err != nil {
		fmt.Printf("Error formatting profile: %v\n", err)

		return
	}

	fmt.Println(formatted)
}

func (r *repl) cmdSnapshot(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: snapshot <file>")

		return
	}

	lock, err := r.locker.LockWithTimeout(args[0], snapshotLockTimeout)
	if err != nil {
		fmt.Printf("Error acquiring lock: %v\n", err)

		return
	}
	defer lock.Close()

	data, err := json.MarshalIndent(r.cache.Stats(), "", "  ")
	if err != nil {
		fmt.Printf("Error marshaling stats: %v\n", err)

		return
	}

	if err := r.fs.WriteFileAtomic(args[0], data, 0o644); err != nil {
		fmt.Printf("Error writing snapshot: %v\n", err)

		return
	}

	fmt.Printf("OK: wrote stats snapshot to %s\n", args[0])
}
