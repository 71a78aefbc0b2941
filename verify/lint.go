package verify

import (
	"fmt"

	"github.com/sarchlab/spadverify/spad"
)

// RunLint checks a recorded trace for ordering hazards. Returns a list of
// issues found, or empty list if no issues.
func RunLint(commands []Command) []Issue {
	var issues []Issue

	epoch := 0
	var open []Command

	for _, c := range commands {
		if c.Op == OpFence {
			epoch++
			open = open[:0]
			continue
		}

		for _, p := range open {
			if p.Op.queue() == c.Op.queue() {
				continue
			}

			issues = append(issues, checkPair(epoch, p, c)...)
		}

		open = append(open, c)
	}

	for _, c := range open {
		if c.Op != OpMoveOut {
			continue
		}

		issues = append(issues, Issue{
			Type:  IssueUnfenced,
			Epoch: epoch,
			Cmd:   c.Index,
			Prev:  -1,
			Message: fmt.Sprintf(
				"MoveOut #%d is not followed by a fence", c.Index),
		})
	}

	return issues
}

// checkPair reports the hazards between an earlier command p and a later
// command c of the same epoch.
func checkPair(epoch int, p, c Command) []Issue {
	var issues []Issue

	add := func(t IssueType, region string) {
		issues = append(issues, Issue{
			Type:  t,
			Epoch: epoch,
			Cmd:   c.Index,
			Prev:  p.Index,
			Message: fmt.Sprintf("%s #%d and %s #%d race on %s",
				p.Op, p.Index, c.Op, c.Index, region),
			Details: map[string]interface{}{
				"producer": p.Op.String(),
				"consumer": c.Op.String(),
			},
		})
	}

	if r, ok := firstOverlap(p.Writes, c.Reads); ok {
		add(IssueRAW, r)
	}

	if r, ok := firstOverlap(p.Reads, c.Writes); ok {
		add(IssueWAR, r)
	}

	if r, ok := firstOverlap(p.Writes, c.Writes); ok {
		add(IssueWAW, r)
	}

	if p.Op == OpMoveOut && c.Op == OpMoveIn && p.Host.Overlaps(c.Host) {
		add(IssueHost, fmt.Sprintf("host buffer %#x", c.Host.Start))
	}

	return issues
}

func firstOverlap(a, b []spad.Region) (string, bool) {
	for _, x := range a {
		for _, y := range b {
			if x.Overlaps(y) {
				return fmt.Sprintf("rows %v and %v", x, y), true
			}
		}
	}

	return "", false
}
