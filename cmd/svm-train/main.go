// Command svm-train trains an SVM model from a LIBSVM format data file.
//
//	svm-train [options] training_set_file [model_file]
//
// With -v n it reports n-fold cross-validation accuracy (or mean squared
// error and squared correlation for regression) instead of writing a model.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gosvm/internal/cli"
	"github.com/YuminosukeSato/gosvm/metrics"
	"github.com/YuminosukeSato/gosvm/pkg/errors"
	"github.com/YuminosukeSato/gosvm/pkg/log"
	"github.com/YuminosukeSato/gosvm/svm"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "svm-train: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	opts, rest, err := cli.ParseTrain("svm-train", args, stderr)
	if err != nil {
		return err
	}
	if len(rest) < 1 || len(rest) > 2 {
		fmt.Fprintf(stderr, "Usage: svm-train [options] training_set_file [model_file]\n%s", cli.TrainUsage)
		return errors.NewValueError("svm-train", "expected training_set_file [model_file]")
	}
	if err := cli.SetupLogging(opts.Quiet); err != nil {
		return err
	}
	logger := log.GetLoggerWithName("svm-train")

	inputFile := rest[0]
	modelFile := filepath.Base(inputFile) + ".model"
	if len(rest) == 2 {
		modelFile = rest[1]
	}

	prob, err := svm.ReadProblemFile(inputFile)
	if err != nil {
		return err
	}
	logger.Info("problem loaded", log.SamplesKey, prob.L(), log.FeaturesKey, prob.MaxIndex())

	switch {
	case opts.Grid:
		nfold := opts.NFold
		if nfold == 0 {
			nfold = 5
		}
		return gridSearch(stdout, prob, opts.Param, nfold)
	case opts.NFold > 0:
		return crossValidation(stdout, prob, opts.Param, opts.NFold)
	}

	model, err := svm.Train(prob, opts.Param)
	if err != nil {
		return err
	}
	logger.Info("model trained",
		log.SVMTypeKey, model.SVMType().String(),
		log.NSVKey, model.NumSupportVectors(),
		log.ConvergedKey, model.Converged,
	)
	return svm.SaveModelFile(modelFile, model)
}

func crossValidation(w io.Writer, prob *svm.Problem, param svm.Parameter, nfold int) error {
	target, err := svm.CrossValidate(prob, param, nfold)
	if err != nil {
		return err
	}
	l := prob.L()
	yTrue := mat.NewVecDense(l, append([]float64(nil), prob.Y...))
	yPred := mat.NewVecDense(l, target)

	if param.SVMType.IsRegression() {
		mse, err := metrics.MSE(yTrue, yPred)
		if err != nil {
			return err
		}
		scc, err := metrics.SquaredCorrelation(yTrue, yPred)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Cross Validation Mean squared error = %g\n", mse)
		fmt.Fprintf(w, "Cross Validation Squared correlation coefficient = %g\n", scc)
		return nil
	}
	acc, err := metrics.Accuracy(yTrue, yPred)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Cross Validation Accuracy = %g%%\n", 100*acc)
	return nil
}

func gridSearch(w io.Writer, prob *svm.Problem, param svm.Parameter, nfold int) error {
	res, err := svm.GridSearch(prob, param, nfold, nil, nil)
	if err != nil {
		return err
	}
	for _, pt := range res.Points {
		fmt.Fprintf(w, "c=%g g=%g score=%g\n", pt.C, pt.Gamma, pt.Score)
	}
	fmt.Fprintf(w, "Best c=%g g=%g score=%g\n", res.Best.C, res.Best.Gamma, res.Best.Score)
	return nil
}
