package commands

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/atotto/clipboard"
	"github.com/friture/friture-cli/internal/api"
	"github.com/friture/friture-cli/internal/release"
	"github.com/friture/friture-cli/internal/session"
	"github.com/friture/friture-cli/internal/ui"
	"github.com/spf13/pflag"
)

func releasesCommand() *Command {
	return &Command{
		Name:        "releases",
		Description: "Show the latest release and its installers",
		Usage: `releases [options]

Options:
  --json            Print the raw API response
  -m, --match GLOB  List assets matching GLOB instead of the installers
  -p, --precision N Decimals used for sizes (default from config)
  -r, --refresh     Fetch again even if already fetched this session

Examples:
  releases
  releases --match '*.sha256'
  releases --json`,
		Run: releasesCmd,
	}
}

// fetchRelease wraps the session fetch in a spinner.
func fetchRelease(ctx context.Context, s *session.Session, env *ExecutionEnv, refresh bool) (*api.Release, error) {
	rel, err := ui.WithSpinner(env.Stderr, "Fetching latest release...", func() (*api.Release, error) {
		return s.LatestRelease(ctx, refresh)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest release of %s: %w", s.Config.Repo, err)
	}
	return rel, nil
}

func releasesCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	flags := pflag.NewFlagSet("releases", pflag.ContinueOnError)
	asJSON := flags.Bool("json", false, "Print the raw API response")
	match := flags.StringP("match", "m", "", "List assets matching a glob")
	precision := flags.IntP("precision", "p", s.Config.Precision, "Decimals used for sizes")
	refresh := flags.BoolP("refresh", "r", false, "Fetch again")
	flags.SetOutput(env.Stderr)

	if err := flags.Parse(ReorderArgsForFlags(flags, args)); err != nil {
		return err
	}
	if flags.NArg() > 0 {
		return fmt.Errorf("usage: releases [--json] [--match GLOB] [--precision N] [--refresh]")
	}

	rel, err := fetchRelease(ctx, s, env, *refresh)
	if err != nil {
		return err
	}

	if *asJSON {
		out, err := ui.PrettyJSON(rel.Raw, ui.IsTerminal(env.Stdout))
		if err != nil {
			return fmt.Errorf("releases: %w", err)
		}
		fmt.Fprint(env.Stdout, out)
		return nil
	}

	printReleaseHeader(env.Stdout, rel)

	table := ui.NewTable(env.Stdout)
	table.AlignRight(1)

	if *match != "" {
		assets, err := release.Match(rel, *match)
		if err != nil {
			return err
		}
		if len(assets) == 0 {
			fmt.Fprintf(env.Stdout, "No assets match %s\n", *match)
			return nil
		}
		table.SetHeaders("FILE", "SIZE", "DOWNLOADS")
		table.AlignRight(2)
		for _, a := range assets {
			table.AddRow(ui.AssetStyle.Render(a.Name),
				ui.SizeStyle.Render(ui.FormatBytes(float64(a.Size), *precision)),
				strconv.FormatInt(a.DownloadCount, 10))
		}
		table.Render()
		return nil
	}

	table.SetHeaders("PLATFORM", "SIZE", "FILE")
	release.Pick(rel).Each(func(p release.Platform, a *api.Asset) {
		if a == nil {
			table.AddRow(ui.PlatformStyle.Render(p.Label()),
				ui.MutedStyle.Render(ui.FormatBytes(math.NaN(), *precision)),
				ui.MutedStyle.Render("not available"))
			return
		}
		table.AddRow(ui.PlatformStyle.Render(p.Label()),
			ui.SizeStyle.Render(ui.FormatBytes(float64(a.Size), *precision)),
			ui.AssetStyle.Render(a.Name))
	})
	table.Render()
	return nil
}

func printReleaseHeader(w io.Writer, rel *api.Release) {
	fmt.Fprintf(w, "%s  %s", ui.HeaderStyle.Render(rel.Title()), ui.TagStyle.Render(rel.TagName))
	if !rel.PublishedAt.IsZero() {
		fmt.Fprintf(w, "  %s", ui.DateStyle.Render("published "+rel.PublishedAt.Format("2006-01-02")))
	}
	fmt.Fprintln(w)
	if rel.HTMLURL != "" {
		fmt.Fprintln(w, ui.RenderLink(rel.HTMLURL))
	}
	fmt.Fprintln(w)
}

// platformArg resolves an optional platform argument, defaulting to the host.
func platformArg(flags *pflag.FlagSet) (release.Platform, error) {
	if flags.NArg() > 0 {
		return release.ParsePlatform(flags.Arg(0))
	}
	return release.Current()
}

func urlCommand() *Command {
	return &Command{
		Name:        "url",
		Description: "Print the download URL of an installer",
		Usage: `url [platform] [options]

Platform is windows, mac or linux (default: this machine).

Options:
  --copy    Copy the URL to the clipboard (default: true)`,
		Run: urlCmd,
	}
}

func urlCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	flags := pflag.NewFlagSet("url", pflag.ContinueOnError)
	copyURL := flags.Bool("copy", true, "Copy the URL to the clipboard")
	flags.SetOutput(env.Stderr)

	if err := flags.Parse(ReorderArgsForFlags(flags, args)); err != nil {
		return err
	}
	p, err := platformArg(flags)
	if err != nil {
		return err
	}

	rel, err := fetchRelease(ctx, s, env, false)
	if err != nil {
		return err
	}
	asset, err := release.PickFor(rel, p)
	if err != nil {
		return err
	}

	fmt.Fprintln(env.Stdout, ui.RenderLink(asset.DownloadURL))
	if *copyURL {
		if err := clipboard.WriteAll(asset.DownloadURL); err == nil {
			fmt.Fprintln(env.Stdout, ui.MutedStyle.Render("(copied to clipboard)"))
		}
	}
	return nil
}

func checkCommand() *Command {
	return &Command{
		Name:        "check",
		Description: "Check whether an installed Friture version is up to date",
		Usage: `check <installed-version>

Examples:
  check 0.49
  check v0.51`,
		Run: checkCmd,
	}
}

func checkCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: check <installed-version>")
	}
	installed := args[0]

	rel, err := fetchRelease(ctx, s, env, false)
	if err != nil {
		return err
	}

	newer, err := release.IsNewer(rel.TagName, installed)
	if err != nil {
		return fmt.Errorf("check: %w", err)
	}
	if !newer {
		fmt.Fprintf(env.Stdout, "%s %s is up to date (latest is %s)\n",
			ui.SuccessStyle.Render("✓"), installed, ui.TagStyle.Render(rel.TagName))
		return nil
	}

	fmt.Fprintf(env.Stdout, "%s %s -> %s\n",
		ui.WarningStyle.Render("Update available:"), installed, ui.TagStyle.Render(rel.TagName))
	if p, err := release.Current(); err == nil {
		if a := release.Pick(rel).For(p); a != nil {
			fmt.Fprintf(env.Stdout, "Run %s to get %s (%s).\n",
				ui.CommandStyle.Render("download"), a.Name, ui.FormatSize(a.Size))
			return nil
		}
	}
	if rel.HTMLURL != "" {
		fmt.Fprintf(env.Stdout, "See %s\n", ui.RenderLink(rel.HTMLURL))
	}
	return nil
}

func bytesCommand() *Command {
	return &Command{
		Name:        "bytes",
		Description: "Format byte counts as human-readable sizes",
		Usage: `bytes <count>... [options]

Options:
  -p, --precision N  Decimals (default from config)

Examples:
  bytes 1024          1.0 kB
  bytes -p 2 1048576  1.00 MB`,
		Run: bytesCmd,
	}
}

func bytesCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	flags := pflag.NewFlagSet("bytes", pflag.ContinueOnError)
	precision := flags.IntP("precision", "p", s.Config.Precision, "Decimals")
	flags.SetOutput(env.Stderr)

	if err := flags.Parse(ReorderArgsForFlags(flags, args)); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		return fmt.Errorf("usage: bytes <count>...")
	}

	for _, arg := range flags.Args() {
		n, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			// Not a number renders like any other invalid count
			n = math.NaN()
		}
		fmt.Fprintf(env.Stdout, "%s\t%s\n", arg, ui.FormatBytes(n, *precision))
	}
	return nil
}
