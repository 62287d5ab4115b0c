package cmd

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/yato-cli/yato/color"
	"github.com/yato-cli/yato/constant"
	"github.com/yato-cli/yato/icon"
	"github.com/yato-cli/yato/style"
)

// checkPlayer fails when the configured player is not on PATH.
func checkPlayer(program string) error {
	if _, err := exec.LookPath(program); err != nil {
		printMissingDependency(program)
		return fmt.Errorf("%s not found in PATH", program)
	}
	return nil
}

func printMissingDependency(dep string) {
	var install string
	if dep == "mpv" {
		switch runtime.GOOS {
		case constant.Darwin:
			install = "brew install mpv"
		case constant.Linux:
			install = "sudo apt install mpv"
		case constant.Windows:
			install = "scoop install mpv"
		}
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color.HiRed).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(color.HiRed).Render(fmt.Sprintf("%s Missing dependency", icon.Get(icon.Fail)))
	body := fmt.Sprintf("The player '%s' was not found in your PATH.", dep)

	var suggestion string
	if install != "" {
		suggestion = fmt.Sprintf("\n\nTo install it, try running:\n  %s", style.Bold(install))
	}

	fmt.Println(box.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body, suggestion)))
}
