package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hitoshi/launchdeck/internal/model"
)

// list サブコマンドの表示スタイル
var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	nameStyle    = lipgloss.NewStyle().Width(32)
	dateStyle    = lipgloss.NewStyle().Width(12).Foreground(lipgloss.Color("8"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	outcomeStyle = map[model.Outcome]lipgloss.Style{
		model.OutcomeSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		model.OutcomeFailure: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		model.OutcomePending: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	}
)

// printLaunches は打ち上げ一覧を1行1件で表示する。
// 名前、打ち上げ日、結果ラベルの順に並べ、結果ラベルは結果ごとに色分けする。
func printLaunches(w io.Writer, launches []model.Launch, total int, search string) {
	title := fmt.Sprintf("SpaceX Launches (%d/%d)", len(launches), total)
	if search != "" {
		title += fmt.Sprintf(" matching %q", search)
	}
	fmt.Fprintln(w, headerStyle.Render(title))

	if len(launches) == 0 {
		fmt.Fprintln(w, subtleStyle.Render("No launches found."))
		return
	}

	for _, l := range launches {
		outcome := l.Outcome()
		row := lipgloss.JoinHorizontal(lipgloss.Top,
			nameStyle.Render(truncate(l.Name, 30)),
			dateStyle.Render(l.DateUTC.UTC().Format("2006-01-02")),
			outcomeStyle[outcome].Render(outcome.Label()),
		)
		fmt.Fprintln(w, row)
	}
	fmt.Fprintln(w, subtleStyle.Render(strings.Repeat("─", 56)))
}

// truncate はsを最大n文字に切り詰める。
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
