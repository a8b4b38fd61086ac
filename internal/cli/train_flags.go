// Package cli holds the option parsing shared by the gosvm command line tools.
package cli

import (
	"flag"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/YuminosukeSato/gosvm/pkg/errors"
	"github.com/YuminosukeSato/gosvm/pkg/log"
	"github.com/YuminosukeSato/gosvm/svm"
)

// TrainOptions is the result of parsing svm-train style options.
type TrainOptions struct {
	Param svm.Parameter
	NFold int  // 0 unless -v was given
	Grid  bool // search (C, gamma) by cross-validation
	Quiet bool
}

// TrainUsage lists the training options in LIBSVM order.
const TrainUsage = `options:
-s svm_type : set type of SVM (default 0)
	0 -- C-SVC		(multi-class classification)
	1 -- nu-SVC		(multi-class classification)
	2 -- one-class SVM
	3 -- epsilon-SVR	(regression)
	4 -- nu-SVR		(regression)
-t kernel_type : set type of kernel function (default 2)
	0 -- linear: u'*v
	1 -- polynomial: (gamma*u'*v + coef0)^degree
	2 -- radial basis function: exp(-gamma*|u-v|^2)
	3 -- sigmoid: tanh(gamma*u'*v + coef0)
	4 -- precomputed kernel (kernel values in training_set_file)
-d degree : set degree in kernel function (default 3)
-g gamma : set gamma in kernel function (default 1/num_features)
-r coef0 : set coef0 in kernel function (default 0)
-c cost : set the parameter C of C-SVC, epsilon-SVR, and nu-SVR (default 1)
-n nu : set the parameter nu of nu-SVC, one-class SVM, and nu-SVR (default 0.5)
-p epsilon : set the epsilon in loss function of epsilon-SVR (default 0.1)
-m cachesize : set cache memory size in MB (default 100)
-e epsilon : set tolerance of termination criterion (default 0.001)
-h shrinking : whether to use the shrinking heuristics, 0 or 1 (default 1)
-b probability_estimates : whether to train a model for probability estimates, 0 or 1 (default 0)
-wi weight : set the parameter C of class i to weight*C, for C-SVC (default 1)
-v n : n-fold cross validation mode
-grid : search C and gamma on the default grid by cross validation (5 folds unless -v)
-iter n : cap SMO iterations per subproblem (default 0, no cap)
-j n : number of concurrent subproblems (default 0, all CPUs)
-seed n : seed for fold shuffling (default 1)
-q : quiet mode (no outputs)
`

var weightFlag = regexp.MustCompile(`^-w(-?[0-9]+)$`)

// ExtractWeights removes the -wLABEL WEIGHT pairs, which the flag package
// cannot express, and returns them separately.
func ExtractWeights(args []string) (rest []string, labels []int, weights []float64, err error) {
	for i := 0; i < len(args); i++ {
		m := weightFlag.FindStringSubmatch(args[i])
		if m == nil {
			rest = append(rest, args[i])
			continue
		}
		if i+1 >= len(args) {
			return nil, nil, nil, errors.NewValidationError(args[i], "missing weight value", nil)
		}
		label, _ := strconv.Atoi(m[1])
		w, perr := strconv.ParseFloat(args[i+1], 64)
		if perr != nil {
			return nil, nil, nil, errors.NewValidationError(args[i], "weight must be a number", args[i+1])
		}
		labels = append(labels, label)
		weights = append(weights, w)
		i++
	}
	return rest, labels, weights, nil
}

// ParseTrain parses training options from args and returns the remaining
// positional arguments. Usage and flag errors are written to stderr.
func ParseTrain(name string, args []string, stderr io.Writer) (*TrainOptions, []string, error) {
	args, labels, weights, err := ExtractWeights(args)
	if err != nil {
		return nil, nil, err
	}

	def := svm.DefaultParameter()
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [options] training_set_file [model_file]\n%s", name, TrainUsage)
	}
	svmType := fs.Int("s", int(def.SVMType), "svm type")
	kernelType := fs.Int("t", int(def.KernelType), "kernel type")
	degree := fs.Int("d", def.Degree, "degree")
	gamma := fs.Float64("g", def.Gamma, "gamma")
	coef0 := fs.Float64("r", def.Coef0, "coef0")
	cost := fs.Float64("c", def.C, "cost")
	nu := fs.Float64("n", def.Nu, "nu")
	p := fs.Float64("p", def.P, "epsilon of epsilon-SVR")
	cache := fs.Float64("m", def.CacheSize, "cache size in MB")
	eps := fs.Float64("e", def.Eps, "tolerance")
	shrinking := fs.Int("h", 1, "shrinking")
	probability := fs.Int("b", 0, "probability estimates")
	nfold := fs.Int("v", 0, "n-fold cross validation")
	grid := fs.Bool("grid", false, "grid search")
	maxIter := fs.Int("iter", 0, "iteration cap")
	workers := fs.Int("j", 0, "workers")
	seed := fs.Uint64("seed", def.Seed, "seed")
	quiet := fs.Bool("q", false, "quiet mode")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	if *shrinking != 0 && *shrinking != 1 {
		return nil, nil, errors.NewValidationError("h", "must be 0 or 1", *shrinking)
	}
	if *probability != 0 && *probability != 1 {
		return nil, nil, errors.NewValidationError("b", "must be 0 or 1", *probability)
	}
	if isSet(fs, "v") && *nfold < 2 {
		return nil, nil, errors.NewValidationError("v", "n-fold cross validation: n must be >= 2", *nfold)
	}

	param := def
	param.SVMType = svm.SVMType(*svmType)
	param.KernelType = svm.KernelType(*kernelType)
	param.Degree = *degree
	param.Gamma = *gamma
	param.Coef0 = *coef0
	param.C = *cost
	param.Nu = *nu
	param.P = *p
	param.CacheSize = *cache
	param.Eps = *eps
	param.Shrinking = *shrinking == 1
	param.Probability = *probability == 1
	param.WeightLabel = labels
	param.Weight = weights
	param.MaxIter = *maxIter
	param.NumWorkers = *workers
	param.Seed = *seed

	opts := &TrainOptions{Param: param, NFold: *nfold, Grid: *grid, Quiet: *quiet}
	return opts, fs.Args(), nil
}

func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// SetupLogging installs console logging on stderr at info level, or error
// level in quiet mode.
func SetupLogging(quiet bool) error {
	level := "info"
	if quiet {
		level = "error"
	}
	return log.SetupConsoleLogger(level)
}
