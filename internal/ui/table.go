package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vandelay/stratus/pkg/types"
)

// Box drawing characters
const (
	topLeft     = "╭"
	topRight    = "╮"
	bottomLeft  = "╰"
	bottomRight = "╯"
	horizontal  = "─"
	vertical    = "│"
	leftT       = "├"
	rightT      = "┤"
	topT        = "┬"
	bottomT     = "┴"
)

var hostColumns = []int{20, 28, 15, 16, 14, 10}

var (
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	nameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
	plainStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	envStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

// PrintHostTable prints the selected deploy targets in a styled box table.
// envTag names the tag whose value fills the Env column.
func PrintHostTable(instances []types.Instance, envTag string) {
	headers := []string{"ID", "Name", "Private IP", "Subnet", "Env", "State"}

	var sb strings.Builder

	border(&sb, topLeft, topT, topRight)

	sb.WriteString(borderStyle.Render(vertical))
	for i, h := range headers {
		sb.WriteString(headerStyle.Render(cell(h, hostColumns[i])))
		sb.WriteString(borderStyle.Render(vertical))
	}
	sb.WriteString("\n")

	border(&sb, leftT, "┼", rightT)

	for _, inst := range instances {
		cells := []struct {
			text  string
			style lipgloss.Style
		}{
			{inst.ID, idStyle},
			{inst.Name, nameStyle},
			{inst.PrivateIP, plainStyle},
			{inst.SubnetID, mutedStyle},
			{inst.Tags[envTag], envStyle},
			{inst.State, plainStyle},
		}

		sb.WriteString(borderStyle.Render(vertical))
		for i, c := range cells {
			sb.WriteString(c.style.Render(cell(c.text, hostColumns[i])))
			sb.WriteString(borderStyle.Render(vertical))
		}
		sb.WriteString("\n")
	}

	border(&sb, bottomLeft, bottomT, bottomRight)

	fmt.Print(sb.String())
	fmt.Printf("  %d host(s) selected\n", len(instances))
}

func border(sb *strings.Builder, left, mid, right string) {
	sb.WriteString(borderStyle.Render(left))
	for i, w := range hostColumns {
		sb.WriteString(borderStyle.Render(strings.Repeat(horizontal, w+2)))
		if i < len(hostColumns)-1 {
			sb.WriteString(borderStyle.Render(mid))
		}
	}
	sb.WriteString(borderStyle.Render(right))
	sb.WriteString("\n")
}

func cell(s string, width int) string {
	return " " + runewidth.FillRight(runewidth.Truncate(s, width, "..."), width) + " "
}
