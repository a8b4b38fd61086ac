// Command svm-scale scales each feature of a LIBSVM format data file to a
// range and writes the result to standard output.
//
//	svm-scale [-l lower] [-u upper] [-y y_lower y_upper] [-s save_filename] [-r restore_filename] filename
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/gosvm/internal/cli"
	"github.com/YuminosukeSato/gosvm/pkg/errors"
	"github.com/YuminosukeSato/gosvm/preprocessing"
	"github.com/YuminosukeSato/gosvm/svm"
)

const usage = `Usage: svm-scale [options] data_filename
options:
-l lower : x scaling lower limit (default -1)
-u upper : x scaling upper limit (default +1)
-y y_lower y_upper : y scaling limits (default: no y scaling)
-s save_filename : save scaling parameters to save_filename
-r restore_filename : restore scaling parameters from restore_filename
-q : quiet mode (no warnings)
`

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "svm-scale: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	args, err := joinYRange(args)
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("svm-scale", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	lower := fs.Float64("l", -1, "x lower limit")
	upper := fs.Float64("u", 1, "x upper limit")
	yRange := fs.String("y", "", "y_lower,y_upper")
	save := fs.String("s", "", "save filename")
	restore := fs.String("r", "", "restore filename")
	quiet := fs.Bool("q", false, "quiet mode")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.NewValueError("svm-scale", "expected data_filename")
	}
	if *save != "" && *restore != "" {
		return errors.NewValueError("svm-scale", "cannot use -r and -s simultaneously")
	}
	if err := cli.SetupLogging(*quiet); err != nil {
		return err
	}

	prob, err := svm.ReadProblemFile(fs.Arg(0))
	if err != nil {
		return err
	}

	var scaler *preprocessing.MinMaxScaler
	if *restore != "" {
		if scaler, err = preprocessing.LoadRangeFile(*restore); err != nil {
			return err
		}
	} else {
		scaler = preprocessing.NewMinMaxScaler(*lower, *upper)
		if *yRange != "" {
			lo, hi, err := parseRange(*yRange)
			if err != nil {
				return err
			}
			scaler.WithYRange(lo, hi)
		}
		if err := scaler.FitProblem(prob); err != nil {
			return err
		}
	}

	if *save != "" {
		if err := scaler.SaveRangeFile(*save); err != nil {
			return err
		}
	}

	scaled, err := scaler.TransformProblem(prob)
	if err != nil {
		return err
	}
	return svm.WriteProblem(stdout, scaled)
}

// joinYRange rewrites "-y lo hi" as "-y lo,hi" for the flag package.
func joinYRange(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		if args[i] != "-y" {
			out = append(out, args[i])
			continue
		}
		if i+2 >= len(args) {
			return nil, errors.NewValidationError("y", "expects y_lower y_upper", nil)
		}
		out = append(out, "-y", args[i+1]+","+args[i+2])
		i += 2
	}
	return out, nil
}

func parseRange(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, errors.NewValidationError("y", "expects y_lower y_upper", s)
	}
	lo, err1 := strconv.ParseFloat(parts[0], 64)
	hi, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil {
		return 0, 0, errors.NewValidationError("y", "limits must be numbers", s)
	}
	return lo, hi, nil
}
