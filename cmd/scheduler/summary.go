package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/noah-isme/pc-discussion-scheduler/internal/dto"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	slotStyle = lipgloss.NewStyle().
			Width(9).
			Foreground(lipgloss.Color("#AAAAAA"))
	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

// renderSummary lists every slot with its papers followed by the papers left over.
func renderSummary(run *dto.ScheduleRunResponse) string {
	bySlot := make(map[int][]string)
	for _, p := range run.Placements {
		bySlot[p.Slot] = append(bySlot[p.Slot], strconv.Itoa(p.PaperID))
	}

	lines := make([]string, 0, run.Settings.SlotCount)
	for slot := 1; slot <= run.Settings.SlotCount; slot++ {
		papers := bySlot[slot]
		row := noteStyle.Render("-")
		if len(papers) > 0 {
			row = strings.Join(papers, ", ")
		}
		lines = append(lines, slotStyle.Render(fmt.Sprintf("slot %d", slot))+row)
	}

	header := titleStyle.Render(fmt.Sprintf("%d placed in %d slots (capacity %d, floor %d, %d thresholds)",
		len(run.Placements),
		len(run.Table.Columns),
		run.Settings.Capacity,
		run.Settings.ThresholdFloor,
		run.ThresholdsVisited,
	))

	sections := []string{header, boxStyle.Render(strings.Join(lines, "\n"))}
	if len(run.Unscheduled) > 0 {
		ids := make([]string, 0, len(run.Unscheduled))
		for _, u := range run.Unscheduled {
			ids = append(ids, strconv.Itoa(u.PaperID))
		}
		sections = append(sections, warnStyle.Render("unscheduled: "+strings.Join(ids, ", ")))
	}
	if len(run.Notices) > 0 {
		sections = append(sections, noteStyle.Render(fmt.Sprintf("%d empty attempts logged", len(run.Notices))))
	}
	if run.Report.DroppedAssignments > 0 {
		sections = append(sections, noteStyle.Render(fmt.Sprintf("%d assignments dropped for unknown reviewers", run.Report.DroppedAssignments)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
