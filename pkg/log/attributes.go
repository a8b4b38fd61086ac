// Package log defines standard attribute keys for SVM training and inference.
//
// The keys follow a hierarchical naming convention (e.g. "model.name",
// "data.samples", "svm.n_sv") so that log output can be filtered by prefix.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the estimator type.
	// Examples: "SVC", "NuSVR", "OneClassSVM"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "cross_validate", "load", "save"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component is logging.
	// Set automatically by GetLoggerWithName.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape
const (
	// SamplesKey indicates the number of training instances.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the highest feature index seen in the data.
	FeaturesKey = "data.features"

	// ClassesKey indicates the number of distinct class labels.
	ClassesKey = "data.classes"

	// FoldKey identifies a cross-validation fold.
	FoldKey = "data.fold"
)

// Solver and Model Characteristics
const (
	// SVMTypeKey records the formulation: "c_svc", "nu_svc", "one_class", "epsilon_svr", "nu_svr".
	SVMTypeKey = "svm.type"

	// KernelKey records the kernel type: "linear", "polynomial", "rbf", "sigmoid", "precomputed".
	KernelKey = "svm.kernel"

	// NSVKey records the number of support vectors of a decision function or model.
	NSVKey = "svm.n_sv"

	// NBSVKey records the number of bounded support vectors (alpha at its upper bound).
	NBSVKey = "svm.n_bsv"

	// RhoKey records the bias term of a decision function.
	RhoKey = "svm.rho"

	// ObjectiveKey records the dual objective value at termination.
	ObjectiveKey = "svm.obj"

	// PairKey identifies a one-vs-one subproblem, formatted as "i-j".
	PairKey = "svm.pair"

	// IterationKey records the number of optimisation iterations.
	IterationKey = "training.iteration"

	// ConvergedKey records whether the solver met its stopping tolerance.
	ConvergedKey = "training.converged"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records classification accuracy in percent or fraction as documented by the caller.
	AccuracyKey = "metrics.accuracy"

	// MSEKey records mean squared error for regression.
	MSEKey = "metrics.mse"

	// MAEKey records mean absolute error for regression.
	MAEKey = "metrics.mae"

	// SCCKey records the squared correlation coefficient for regression.
	SCCKey = "metrics.scc"
)

// Error and Warning Context
const (
	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// SuggestionKey provides hints for resolving issues.
	// Examples: "scale the data", "increase max_iter"
	SuggestionKey = "error.suggestion"
)

// Hyperparameters
const (
	CostKey       = "hyperparams.c"
	GammaKey      = "hyperparams.gamma"
	NuKey         = "hyperparams.nu"
	RandomSeedKey = "config.random_seed"
	WorkersKey    = "config.workers"
)

// Standard attribute values.
const (
	OperationFit           = "fit"
	OperationPredict       = "predict"
	OperationCrossValidate = "cross_validate"
	OperationLoad          = "load"
	OperationSave          = "save"
	OperationTransform     = "transform"

	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"
)
