package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/jdefrancesco/dskDupes/internal/config"
	"github.com/jdefrancesco/dskDupes/internal/dactions"
	"github.com/jdefrancesco/dskDupes/internal/dfs"
	"github.com/jdefrancesco/dskDupes/internal/dmap"
	"github.com/jdefrancesco/dskDupes/internal/dsklog"
	"github.com/jdefrancesco/dskDupes/internal/dwalk"
	"github.com/jdefrancesco/dskDupes/internal/ui"
	"github.com/jdefrancesco/dskDupes/pkg/utils"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Version
const ver = "0.1.0"

// options are the flags that only matter to the command itself.
type options struct {
	delete     bool
	list       bool
	hash       string
	noBanner   bool
	cpuProfile string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, pterm.Error.Sprint(err))
		stop()
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	cfg, loadErr := config.Load()
	opts := options{hash: string(cfg.HashAlgorithm)}

	cmd := &cobra.Command{
		Use:   "dskDupes [flags] ROOT...",
		Short: "Find duplicate files and optionally delete or list them",
		Long: `dskDupes walks one or more directory trees, groups files by size and
confirms duplicates by hashing their contents. The first file found in each
group is the original and is never deleted.`,
		Version:       ver,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if loadErr != nil {
				return loadErr
			}

			cfg.HashAlgorithm = dfs.HashAlgorithm(opts.hash)
			switch {
			case opts.delete:
				cfg.Mode = config.ModeDelete
			case opts.list:
				cfg.Mode = config.ModeList
			}

			if !opts.noBanner {
				showHeader(stderr)
			}

			if opts.cpuProfile != "" {
				f, err := os.Create(opts.cpuProfile)
				if err != nil {
					return fmt.Errorf("cpuprofile: %w", err)
				}
				defer f.Close()
				if err := pprof.StartCPUProfile(f); err != nil {
					return fmt.Errorf("cpuprofile: %w", err)
				}
				defer pprof.StopCPUProfile()
			}

			return run(cmd.Context(), cfg, args, afero.NewOsFs(), stdout, stderr)
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&opts.delete, "delete", "d", false, "Delete all duplicate files, keeping the original of each group.")
	flags.BoolVarP(&opts.list, "list", "l", false, "List all duplicate files.")
	cmd.MarkFlagsMutuallyExclusive("delete", "list")

	flags.StringVar(&opts.hash, "hash", opts.hash, "Hash algorithm: sha1, sha256, sha512 or blake3.")
	flags.Var(&cfg.ChunkSize, "chunk-size", "Bytes read per hash update, e.g. 64KiB.")
	flags.IntVar(&cfg.Workers, "workers", cfg.Workers, "Files hashed concurrently (0 = one per CPU).")
	flags.BoolVar(&cfg.ContinueOnError, "continue-on-error", cfg.ContinueOnError, "Skip files that fail and report them at the end instead of aborting.")
	flags.BoolVar(&cfg.SkipEmpty, "skip-empty", cfg.SkipEmpty, "Ignore empty files.")
	flags.BoolVar(&cfg.SkipHidden, "skip-hidden", cfg.SkipHidden, "Ignore dotfiles and dot directories.")
	flags.Var(&cfg.MinFileSize, "min-size", "Ignore files smaller than this (0 = no limit).")
	flags.Var(&cfg.MaxFileSize, "max-size", "Ignore files larger than this (0 = no limit).")
	flags.StringVar(&cfg.JSONPath, "json", "", "Also write the duplicate groups to this JSON file.")
	flags.StringVar(&cfg.CSVPath, "csv", "", "Also write the duplicate groups to this CSV file.")
	flags.BoolVarP(&cfg.Interactive, "interactive", "i", false, "Review duplicates and type a confirmation code before deleting.")
	flags.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Where to write the log.")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error).")
	flags.BoolVar(&opts.noBanner, "no-banner", false, "Do not show the dskDupes banner.")
	flags.StringVar(&opts.cpuProfile, "cpuprofile", "", "Write CPU profile to disk for analysis.")

	return cmd
}

// run executes one scan and the selected action. Under ContinueOnError the
// skipped failures are returned together once the action has finished.
func run(ctx context.Context, cfg config.Config, roots []string, fs afero.Fs, stdout, stderr io.Writer) error {
	dsklog.InitializeDlogger(cfg.LogFile)
	if cfg.LogLevel != "" {
		if err := dsklog.SetLevel(cfg.LogLevel); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	dsklog.Dlogger.Infof("Starting %s scan of %v (hash=%s, chunk=%d, workers=%d)",
		cfg.Mode, roots, cfg.HashAlgorithm, cfg.ChunkSize, cfg.Workers)

	start := time.Now()
	spinner, _ := pterm.DefaultSpinner.WithWriter(stderr).Start("Indexing file sizes...")
	stopSpinner := func() {
		if spinner != nil {
			_ = spinner.Stop()
		}
	}

	walker := dwalk.NewDWalker(fs, cfg)
	cands, err := walker.Run(ctx, roots)
	if err != nil {
		stopSpinner()
		return err
	}

	if spinner != nil {
		spinner.UpdateText(fmt.Sprintf("Hashing %d candidates out of %d files...", cands.Len(), cands.Scanned()))
	}
	hasher, err := dfs.NewHasher(fs, cfg.HashAlgorithm, int(cfg.ChunkSize))
	if err != nil {
		stopSpinner()
		return err
	}
	grouper := dmap.NewGrouper(hasher, cfg)
	dMap, err := grouper.Run(ctx, cands)
	stopSpinner()
	if err != nil {
		return err
	}

	fmt.Fprintln(stderr, pterm.Success.Sprintf("%d files scanned, %d duplicates found (%s reclaimable) in %s",
		cands.Scanned(), dMap.Len(), utils.DisplaySize(dMap.ReclaimableBytes()), time.Since(start).Round(time.Millisecond)))

	skipped := append(walker.Errors(), grouper.Errors()...)

	if cfg.JSONPath != "" {
		if err := dMap.WriteJSON(cfg.JSONPath); err != nil {
			return err
		}
	}
	if cfg.CSVPath != "" {
		if err := dMap.WriteCSV(cfg.CSVPath); err != nil {
			return err
		}
	}

	switch cfg.Mode {
	case config.ModeList:
		if _, err := dactions.List(stdout, dMap); err != nil {
			return err
		}

	case config.ModeDelete:
		if cfg.Interactive {
			ok, err := ui.ConfirmDeletion(dMap)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(stderr, pterm.Warning.Sprint("Deletion cancelled, nothing was removed."))
				return errors.Join(skipped...)
			}
		}
		res, err := dactions.Delete(stdout, fs, dMap, cfg.ContinueOnError)
		if err != nil && !cfg.ContinueOnError {
			return err
		}
		skipped = append(skipped, res.Errors...)
		fmt.Fprintln(stderr, pterm.Success.Sprintf("Freed %s", utils.DisplaySize(res.Freed)))
		logRootUsage(roots)
	}

	if len(skipped) > 0 {
		return fmt.Errorf("%d file(s) skipped after errors: %w", len(skipped), errors.Join(skipped...))
	}
	return nil
}

// logRootUsage records how full each root's filesystem is after a delete.
func logRootUsage(roots []string) {
	for _, root := range roots {
		info, err := dfs.DescribeRoot(root)
		if err != nil {
			dsklog.Dlogger.Debugf("No filesystem info for %s: %v", root, err)
			continue
		}
		dsklog.Dlogger.Info(info.String())
	}
}

// showHeader prints colorful dskDupes banner.
func showHeader(w io.Writer) {
	banner, err := pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("dsk", pterm.NewStyle(pterm.FgLightGreen)),
		putils.LettersFromStringWithStyle("Dupes", pterm.NewStyle(pterm.FgLightWhite))).
		Srender()
	if err != nil {
		return
	}
	fmt.Fprintln(w, banner)
}
