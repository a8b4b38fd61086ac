// Command svm-predict applies a trained model to a LIBSVM format test file.
//
//	svm-predict [options] test_file model_file output_file
//
// One prediction is written per line. Accuracy, or mean squared error, mean
// absolute error and squared correlation for regression, is logged against
// the test labels.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gosvm/internal/cli"
	"github.com/YuminosukeSato/gosvm/metrics"
	"github.com/YuminosukeSato/gosvm/pkg/errors"
	"github.com/YuminosukeSato/gosvm/pkg/log"
	"github.com/YuminosukeSato/gosvm/svm"
)

const usage = `Usage: svm-predict [options] test_file model_file output_file
options:
-b probability_estimates : whether to predict probability estimates, 0 or 1 (default 0)
-q : quiet mode (no outputs)
`

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "svm-predict: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("svm-predict", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	probability := fs.Int("b", 0, "probability estimates")
	quiet := fs.Bool("q", false, "quiet mode")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 3 {
		fs.Usage()
		return errors.NewValueError("svm-predict", "expected test_file model_file output_file")
	}
	if *probability != 0 && *probability != 1 {
		return errors.NewValidationError("b", "must be 0 or 1", *probability)
	}
	if err := cli.SetupLogging(*quiet); err != nil {
		return err
	}

	model, err := svm.LoadModelFile(fs.Arg(1))
	if err != nil {
		return err
	}
	test, err := svm.ReadProblemFile(fs.Arg(0))
	if err != nil {
		return err
	}

	out, err := os.Create(fs.Arg(2))
	if err != nil {
		return errors.Wrap(err, "failed to create output file")
	}
	defer out.Close()

	bw := bufio.NewWriter(out)
	if err := predict(bw, model, test, *probability == 1); err != nil {
		return err
	}
	return errors.Wrap(bw.Flush(), "failed to write predictions")
}

// predict writes one line per test vector and logs the evaluation.
func predict(w io.Writer, model *svm.Model, test *svm.Problem, probability bool) error {
	logger := log.GetLoggerWithName("svm-predict")
	svmType := model.SVMType()

	if probability {
		if !model.HasProbabilityModel() {
			return errors.NewValueError("svm-predict", "model does not support probability estimates")
		}
		switch {
		case svmType.IsRegression():
			logger.Info(fmt.Sprintf("Prob. model for test data: target value = predicted value + z,\n"+
				"z: Laplace distribution e^(-|z|/sigma)/(2sigma),sigma=%g", model.SVRProbability()))
		case svmType == svm.OneClass:
			fmt.Fprintln(w, "labels 1 -1")
		default:
			labels := model.Labels()
			parts := make([]string, len(labels))
			for i, l := range labels {
				parts[i] = strconv.Itoa(l)
			}
			fmt.Fprintf(w, "labels %s\n", strings.Join(parts, " "))
		}
	} else if model.HasProbabilityModel() && !svmType.IsRegression() {
		logger.Info("Model supports probability estimates, but disabled in prediction.")
	}

	l := test.L()
	pred := make([]float64, l)
	for i, x := range test.X {
		var err error
		if probability && !svmType.IsRegression() {
			var probs []float64
			pred[i], probs, err = svm.PredictProbability(model, x)
			if err != nil {
				return errors.Wrapf(err, "test line %d", i+1)
			}
			fmt.Fprint(w, strconv.FormatFloat(pred[i], 'g', -1, 64))
			for _, p := range probs {
				fmt.Fprintf(w, " %g", p)
			}
			fmt.Fprintln(w)
			continue
		}
		pred[i], err = svm.Predict(model, x)
		if err != nil {
			return errors.Wrapf(err, "test line %d", i+1)
		}
		fmt.Fprintln(w, strconv.FormatFloat(pred[i], 'g', -1, 64))
	}

	yTrue := mat.NewVecDense(l, append([]float64(nil), test.Y...))
	yPred := mat.NewVecDense(l, pred)
	if svmType.IsRegression() {
		mse, err := metrics.MSE(yTrue, yPred)
		if err != nil {
			return err
		}
		mae, err := metrics.MAE(yTrue, yPred)
		if err != nil {
			return err
		}
		scc, err := metrics.SquaredCorrelation(yTrue, yPred)
		if err != nil {
			return err
		}
		logger.Info(fmt.Sprintf("Mean squared error = %g (regression)", mse), log.MSEKey, mse)
		logger.Info(fmt.Sprintf("Mean absolute error = %g (regression)", mae), log.MAEKey, mae)
		logger.Info(fmt.Sprintf("Squared correlation coefficient = %g (regression)", scc), log.SCCKey, scc)
		return nil
	}
	acc, err := metrics.Accuracy(yTrue, yPred)
	if err != nil {
		return err
	}
	correct := int(acc*float64(l) + 0.5)
	logger.Info(fmt.Sprintf("Accuracy = %g%% (%d/%d) (classification)", 100*acc, correct, l), log.AccuracyKey, acc)
	return nil
}
