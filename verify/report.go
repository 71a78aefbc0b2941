package verify

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
)

// WriteReport writes a formatted lint report to a writer
func WriteReport(w io.Writer, commands []Command, issues []Issue) {
	separator := strings.Repeat("=", 60)

	fmt.Fprintln(w, separator)
	fmt.Fprintln(w, "OFFLOAD SEQUENCE LINT REPORT")
	fmt.Fprintln(w, separator)

	fences := lo.CountBy(commands, func(c Command) bool {
		return c.Op == OpFence
	})
	fmt.Fprintf(w, "Recorded %d commands in %d fence epochs\n",
		len(commands), fences+1)

	if len(issues) == 0 {
		fmt.Fprintln(w, "No hazards found")
		return
	}

	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("%d hazards", len(issues)))
	t.AppendHeader(table.Row{"Type", "Epoch", "Cmd", "Prev", "Message"})

	for _, issue := range issues {
		prev := "-"
		if issue.Prev >= 0 {
			prev = fmt.Sprint(issue.Prev)
		}

		t.AppendRow(table.Row{
			issue.Type, issue.Epoch, issue.Cmd, prev, issue.Message,
		})
	}

	fmt.Fprintln(w, t.Render())

	byType := lo.CountValuesBy(issues, func(i Issue) IssueType {
		return i.Type
	})
	for _, typ := range []IssueType{
		IssueRAW, IssueWAR, IssueWAW, IssueHost, IssueUnfenced,
	} {
		if n := byType[typ]; n > 0 {
			fmt.Fprintf(w, "%-8s %d\n", typ, n)
		}
	}
}
