// Package svm provides scikit-learn style support vector machine estimators
// over gonum matrices: SVC, NuSVC, SVR, NuSVR and OneClassSVM.
//
// The estimators wrap the SMO solver of the gosvm/svm package. Feature j of a
// row becomes sparse index j+1, so a model trained here can be saved with
// svm.SaveModelFile and used by the command line tools. Fitted estimators can
// also be persisted with core/model.SaveModel.
//
// 使用例:
//
//	clf := svm.NewSVC(svm.WithC(10), svm.WithProbability(true))
//	if err := clf.Fit(X, y); err != nil {
//	    log.Fatal(err)
//	}
//	proba, _ := clf.PredictProba(Xtest)
package svm
