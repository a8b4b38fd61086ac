// Package svm implements support vector machine training and inference with
// a decomposition (SMO) quadratic-program solver.
//
// Five formulations are supported: C-SVC, nu-SVC, one-class SVM, epsilon-SVR
// and nu-SVR, over linear, polynomial, RBF, sigmoid and precomputed kernels.
// Multi-class classification is composed from one-vs-one binary problems that
// are trained concurrently, each with its own kernel cache.
//
// A minimal session:
//
//	prob, err := svm.ReadProblemFile("heart_scale")
//	if err != nil {
//	    return err
//	}
//	param := svm.DefaultParameter()
//	param.C = 10
//	model, err := svm.Train(prob, param)
//	if err != nil {
//	    return err
//	}
//	label, err := svm.Predict(model, prob.X[0])
//
// Models are persisted in a versioned text format that also reads plain
// LIBSVM model files (see SaveModel and LoadModel).
package svm
