package view

import (
	"bufio"
	"fmt"
	"io"

	"aoc-leaderboard/scoreboard"
)

const (
	ansiReset = "\x1b[0m"
	ansiGold  = "\x1b[0;93m"
	ansiCyan  = "\x1b[0;96m"
	ansiGray  = "\x1b[0;90m"
)

// Console writes the leaderboard as a coloured text table.
func Console(w io.Writer, lb *Leaderboard) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%s (%d)\n\n", lb.Title, lb.Year)

	// Two header lines with the day numbers above the star columns. Rows
	// start with a four character place prefix.
	fmt.Fprint(bw, "    ")
	for _, d := range lb.Days {
		if d.Tens() == "" {
			bw.WriteByte(' ')
		} else {
			bw.WriteString(d.Tens())
		}
	}
	fmt.Fprint(bw, "\n    ")
	for _, d := range lb.Days {
		bw.WriteString(d.Ones())
	}
	bw.WriteByte('\n')

	for _, row := range lb.Rows {
		fmt.Fprintf(bw, "%2d. ", row.Place)
		for _, s := range row.Stars {
			bw.WriteString(starColor(s))
			bw.WriteByte('*')
			bw.WriteString(ansiReset)
		}
		fmt.Fprintf(bw, " %4d %s\n", row.Score, row.Name)
	}

	return bw.Flush()
}

func starColor(s scoreboard.Stars) string {
	switch s {
	case scoreboard.StarsBoth:
		return ansiGold
	case scoreboard.StarsFirst:
		return ansiCyan
	default:
		return ansiGray
	}
}
