// Package export writes the planning window to files other tools open.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/christopherklint97/mybtp/internal/btp"
	"github.com/christopherklint97/mybtp/internal/planning"
)

type Format string

const (
	ICS  Format = "ics"
	XLSX Format = "xlsx"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(s, "."))); f {
	case ICS, XLSX:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q (want ics or xlsx)", s)
}

// Write renders the window of s in the chosen format.
func Write(w io.Writer, f Format, s planning.State, data *btp.PlanningData, now time.Time) error {
	switch f {
	case ICS:
		from, to := s.Window()
		return WriteICS(w, data, from, to, now)
	case XLSX:
		return WriteXLSX(w, planning.Build(s, data))
	}
	return fmt.Errorf("unknown export format %q", f)
}
