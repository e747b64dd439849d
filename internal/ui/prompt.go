package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// RenderPrompt renders a Powerline-style prompt: app name, repository and,
// once a release has been fetched, its tag.
func RenderPrompt(app, repo, tag string) string {
	appBg := currentTheme.Mauve
	appFg := currentTheme.Base
	repoBg := currentTheme.Surface
	repoFg := currentTheme.Text
	tagBg := currentTheme.Blue
	tagFg := currentTheme.Base

	appStyle := lipgloss.NewStyle().Background(appBg).Foreground(appFg).Padding(0, 1).Bold(true)
	repoStyle := lipgloss.NewStyle().Background(repoBg).Foreground(repoFg).Padding(0, 1)
	tagStyle := lipgloss.NewStyle().Background(tagBg).Foreground(tagFg).Padding(0, 1)

	seg1 := appStyle.Render(app)
	sep1 := lipgloss.NewStyle().Foreground(appBg).Background(repoBg).Render("")
	seg2 := repoStyle.Render(repo)

	if tag != "" {
		sep2 := lipgloss.NewStyle().Foreground(repoBg).Background(tagBg).Render("")
		seg3 := tagStyle.Render(tag)
		sep3 := lipgloss.NewStyle().Foreground(tagBg).Render("")
		return fmt.Sprintf("%s%s%s%s%s%s ", seg1, sep1, seg2, sep2, seg3, sep3)
	}

	sep2 := lipgloss.NewStyle().Foreground(repoBg).Render("")
	return fmt.Sprintf("%s%s%s%s ", seg1, sep1, seg2, sep2)
}
