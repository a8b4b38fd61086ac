// Package gosvm provides support vector machines for Go, covering C-SVC,
// nu-SVC, one-class SVM, epsilon-SVR and nu-SVR with the linear, polynomial,
// RBF, sigmoid and precomputed kernels.
//
// The solver core follows LIBSVM closely: models trained here can be saved
// in the LIBSVM text model format and loaded by other LIBSVM-compatible
// tools, and the data file format is the usual sparse "label index:value"
// layout.
//
// # Installation
//
//	go get github.com/YuminosukeSato/gosvm
//
// # Quick Start
//
// The low-level API works on sparse problems:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/gosvm/svm"
//	)
//
//	func main() {
//	    prob, err := svm.ReadProblemFile("heart_scale")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    param := svm.DefaultParameter()
//	    param.C = 10
//	    model, err := svm.Train(prob, param)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    label, err := svm.Predict(model, prob.X[0])
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("Predicted:", label)
//
//	    if err := svm.SaveModelFile("heart_scale.model", model); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// # Packages
//
//   - svm: solver core, kernels, model file I/O, cross-validation, grid search
//   - sklearn/svm: scikit-learn style estimators (SVC, NuSVC, SVR, NuSVR, OneClassSVM) over gonum matrices
//   - preprocessing: StandardScaler and the svm-scale compatible MinMaxScaler
//   - metrics: accuracy, mean squared and absolute error, squared correlation and R²
//   - core/model: estimator interfaces, fitted-state tracking and gob persistence
//   - core/parallel: worker fan-out for pairwise subproblems, folds and batch prediction
//   - pkg/errors: typed errors built on cockroachdb/errors
//   - pkg/log: structured logging built on zerolog
//
// # Command-line tools
//
// cmd/svm-train, cmd/svm-predict and cmd/svm-scale accept the LIBSVM options.
// cmd/svm-toy renders the decision regions of a two-dimensional problem to PNG.
//
// # License
//
// gosvm is released under the MIT License.
package gosvm
