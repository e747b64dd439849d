package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/friture/friture-cli/internal/api"
	"github.com/friture/friture-cli/internal/release"
	"github.com/friture/friture-cli/internal/session"
	"github.com/friture/friture-cli/internal/ui"
	"github.com/friture/friture-cli/internal/util"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/pflag"
)

const partSuffix = ".part"

func downloadCommand() *Command {
	return &Command{
		Name:        "download",
		Description: "Download the installer for a platform",
		Usage: `download [platform] [options]

Platform is windows, mac or linux (default: this machine).
An interrupted download is kept as <file>.part and resumed next time.

Options:
  -o, --output DIR  Directory to save into (default: download_dir from config, or .)
  -f, --force       Overwrite an existing file and discard partial downloads
  -a, --all         Download the installers of every platform in parallel

Examples:
  download
  download windows -o ~/Downloads
  download --all -o mirror/`,
		Run: downloadCmd,
	}
}

func downloadCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	flags := pflag.NewFlagSet("download", pflag.ContinueOnError)
	output := flags.StringP("output", "o", "", "Directory to save into")
	force := flags.BoolP("force", "f", false, "Overwrite existing files")
	all := flags.BoolP("all", "a", false, "Download every platform")
	flags.SetOutput(env.Stderr)

	if err := flags.Parse(ReorderArgsForFlags(flags, args)); err != nil {
		return err
	}
	if flags.NArg() > 1 || (*all && flags.NArg() > 0) {
		return fmt.Errorf("usage: download [platform | --all] [-o DIR] [--force]")
	}

	dir := *output
	if dir == "" {
		dir = s.Config.DownloadDir
	}
	if dir == "" {
		dir = "."
	}

	var p release.Platform
	if !*all {
		var err error
		if p, err = platformArg(flags); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("download: cannot create directory %s: %w", dir, err)
	}

	rel, err := fetchRelease(ctx, s, env, false)
	if err != nil {
		return err
	}

	if *all {
		return downloadAll(ctx, s, env, rel, dir, *force)
	}

	asset, err := release.PickFor(rel, p)
	if err != nil {
		return err
	}

	finalPath := filepath.Join(dir, asset.Name)
	if _, err := os.Stat(finalPath); err == nil && !*force {
		return fmt.Errorf("download: %s already exists (use --force to overwrite)", finalPath)
	}

	partPath := finalPath + partSuffix
	resumeFrom := partialSize(partPath, asset.Size, *force)

	if err := checkDisk(env, dir, asset.Size-resumeFrom); err != nil {
		return err
	}

	if err := fetchAsset(ctx, s, env, *asset, partPath, resumeFrom); err != nil {
		if errors.Is(err, ui.ErrTransferCancelled) || errors.Is(err, context.Canceled) {
			fmt.Fprintf(env.Stderr, "Partial download kept at %s\n", partPath)
		}
		return fmt.Errorf("download: %w", err)
	}

	if err := finishDownload(partPath, finalPath, *asset); err != nil {
		return fmt.Errorf("download: %w", err)
	}
	return reportDownload(env, finalPath, asset)
}

// partialSize returns the offset to resume from, removing a partial file
// that is stale or unwanted.
func partialSize(partPath string, size int64, force bool) int64 {
	info, err := os.Stat(partPath)
	if err != nil {
		return 0
	}
	if force || info.Size() >= size {
		_ = os.Remove(partPath)
		return 0
	}
	return info.Size()
}

func checkDisk(env *ExecutionEnv, dir string, needed int64) error {
	check := util.CheckDiskForFile(dir, needed)
	if err := check.Err(); err != nil {
		return fmt.Errorf("download: %w", err)
	}
	if check.Warning != "" {
		fmt.Fprintln(env.Stderr, ui.WarningStyle.Render("Warning: "+check.Warning))
	}
	return nil
}

// fetchAsset downloads one asset with a progress bar.
func fetchAsset(ctx context.Context, s *session.Session, env *ExecutionEnv, asset api.Asset, partPath string, resumeFrom int64) error {
	return ui.RunTransfer(ctx, env.Stderr, "Downloading "+asset.Name, asset.Size, func(ctx context.Context, send func(int64, int64)) error {
		if resumeFrom > 0 {
			send(resumeFrom, asset.Size)
		}
		return saveAsset(ctx, s.Client, asset, partPath, resumeFrom, send)
	})
}

func downloadAll(ctx context.Context, s *session.Session, env *ExecutionEnv, rel *api.Release, dir string, force bool) error {
	var tasks []DownloadTask
	var skipped []string
	var needed int64

	release.Pick(rel).Each(func(p release.Platform, a *api.Asset) {
		if a == nil {
			return
		}
		path := filepath.Join(dir, a.Name)
		if _, err := os.Stat(path); err == nil && !force {
			skipped = append(skipped, a.Name)
			return
		}
		needed += a.Size - partialSize(path+partSuffix, a.Size, force)
		tasks = append(tasks, DownloadTask{Asset: *a, Path: path})
	})

	if len(tasks) == 0 && len(skipped) == 0 {
		return fmt.Errorf("download: %w: release %s has no installers", release.ErrAssetNotFound, rel.TagName)
	}
	if err := checkDisk(env, dir, needed); err != nil {
		return err
	}

	pool := NewWorkerPool(ctx, s.Client, DefaultDownloadConfig())
	printer := NewFilePrinter(env.Stdout, len(tasks)+len(skipped))
	pool.SetCallback(printer.OnFile)

	for _, name := range skipped {
		pool.Skip()
		fmt.Fprintf(env.Stdout, "  %s %s (already exists)\n", ui.MutedStyle.Render("-"), name)
	}

	fmt.Fprintf(env.Stdout, "Downloading %d installer(s) of %s to %s\n", len(tasks), rel.TagName, dir)
	pool.Start()
	for _, task := range tasks {
		pool.Submit(task)
	}
	stats := pool.Close()

	fmt.Fprintf(env.Stdout, "Downloaded %d (%s), skipped %d, failed %d\n",
		stats.Downloaded, ui.FormatSize(stats.Bytes), stats.Skipped, stats.Failed)
	if stats.Failed > 0 {
		return fmt.Errorf("download: %d of %d installers failed", stats.Failed, len(tasks))
	}
	return nil
}

func reportDownload(env *ExecutionEnv, path string, asset *api.Asset) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}

	kind := "unknown type"
	mt, err := mimetype.DetectFile(path)
	if err == nil {
		kind = mt.String()
	}

	fmt.Fprintf(env.Stdout, "%s Saved %s (%s, %s)\n",
		ui.SuccessStyle.Render("✓"), ui.AssetStyle.Render(path),
		ui.SizeStyle.Render(ui.FormatSize(info.Size())), kind)

	if asset.Size > 0 && info.Size() != asset.Size {
		fmt.Fprintln(env.Stderr, ui.WarningStyle.Render(fmt.Sprintf(
			"Warning: expected %s, got %s", ui.FormatSize(asset.Size), ui.FormatSize(info.Size()))))
	}
	if mt != nil && mt.Is("text/html") {
		fmt.Fprintln(env.Stderr, ui.WarningStyle.Render("Warning: the file looks like an HTML page, not an installer"))
	}
	return nil
}
