// Command contentcheck validates lesson and mock exam content and exits
// non-zero when any question is malformed. It is meant to run in CI before
// content ships.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/elecmate/studyquiz/internal/content"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type report struct {
	Source    string            `json:"source"`
	Valid     bool              `json:"valid"`
	Lessons   int               `json:"lessons"`
	Exams     int               `json:"exams"`
	Questions int               `json:"questions"`
	Problems  []content.Problem `json:"problems,omitempty"`
	Error     string            `json:"error,omitempty"`
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("contentcheck", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	dir := flags.StringP("dir", "d", "", "content directory (default: embedded content)")
	format := flags.StringP("format", "f", "text", "output format: text or json")
	quiet := flags.BoolP("quiet", "q", false, "print nothing when content is valid")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if *format != "text" && *format != "json" {
		fmt.Fprintf(stderr, "unknown format %q\n", *format)
		return 2
	}

	rep := report{Source: "embedded"}
	fsys := content.Embedded()
	if *dir != "" {
		rep.Source = *dir
		fsys = os.DirFS(*dir)
	}

	cat, err := content.Load(fsys)
	if err != nil {
		var verr *content.ValidationError
		if errors.As(err, &verr) {
			rep.Problems = verr.Problems
		} else {
			rep.Error = err.Error()
		}
	} else {
		rep.Valid = true
		rep.Lessons = len(cat.Lessons())
		rep.Exams = len(cat.Exams())
		rep.Questions = cat.Questions()
	}

	if rep.Valid && *quiet {
		return 0
	}

	if *format == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		enc.Encode(rep)
	} else {
		writeText(stdout, rep)
	}

	if !rep.Valid {
		return 1
	}
	return 0
}

func writeText(w io.Writer, rep report) {
	switch {
	case rep.Valid:
		fmt.Fprintf(w, "ok: %s: %d lessons, %d exams, %d questions\n", rep.Source, rep.Lessons, rep.Exams, rep.Questions)
	case rep.Error != "":
		fmt.Fprintf(w, "error: %s: %s\n", rep.Source, rep.Error)
	default:
		fmt.Fprintf(w, "invalid: %s: %d problems\n", rep.Source, len(rep.Problems))
		for _, p := range rep.Problems {
			fmt.Fprintf(w, "  %s\n", p)
		}
	}
}
