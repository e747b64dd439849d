package commands

import (
	"context"
	"fmt"

	"github.com/friture/friture-cli/internal/build"
	"github.com/friture/friture-cli/internal/session"
	"github.com/friture/friture-cli/internal/ui"
)

func versionCommand() *Command {
	return &Command{
		Name:        "version",
		Description: "Print version information",
		Usage:       "version\n\nPrints the build information and the tracked repository.",
		Run:         versionCmd,
	}
}

func versionCmd(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	fmt.Fprintln(env.Stdout, build.String())
	fmt.Fprintf(env.Stdout, "Repository: %s\n", s.Config.Repo)
	if rel := s.CachedRelease(); rel != nil {
		fmt.Fprintf(env.Stdout, "Latest:     %s\n", ui.TagStyle.Render(rel.TagName))
	}
	return nil
}
