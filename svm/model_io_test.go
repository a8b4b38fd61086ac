package svm

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/gosvm/pkg/errors"
)

func roundTrip(t *testing.T, m *Model) *Model {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, SaveModel(&buf, m))
	loaded, err := LoadModel(&buf)
	require.NoError(t, err)
	return loaded
}

func TestModelRoundTripIsBitExact(t *testing.T) {
	cls := blobs(31, 20, [][]float64{{0, 0}, {1, 2}, {2, 0}}, []float64{1, 2, 3}, 0.9)
	reg := linearTargets(32, 50, 0.1)
	oc := gaussianCloud(33, 60)

	tests := []struct {
		name  string
		prob  *Problem
		param func(p *Parameter)
	}{
		{"c_svc rbf probability", cls, func(p *Parameter) { p.Probability = true }},
		{"nu_svc poly", cls, func(p *Parameter) {
			p.SVMType, p.KernelType, p.Nu, p.Degree, p.Coef0 = NuSVC, Poly, 0.3, 2, 1
		}},
		{"c_svc sigmoid", cls, func(p *Parameter) { p.KernelType, p.Gamma, p.Coef0 = Sigmoid, 0.05, -0.3 }},
		{"one_class probability", oc, func(p *Parameter) { p.SVMType, p.Probability = OneClass, true }},
		{"epsilon_svr linear", reg, func(p *Parameter) { p.SVMType, p.KernelType, p.Probability = EpsilonSVR, Linear, true }},
		{"nu_svr rbf", reg, func(p *Parameter) { p.SVMType = NuSVR }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			param := DefaultParameter()
			tt.param(&param)
			m := mustTrain(t, tt.prob, param)
			loaded := roundTrip(t, m)

			assert.Equal(t, m.SVCoef, loaded.SVCoef)
			assert.Equal(t, m.Rho, loaded.Rho)
			assert.Equal(t, m.SV, loaded.SV)
			assert.Equal(t, m.ProbA, loaded.ProbA)
			assert.Equal(t, m.ProbB, loaded.ProbB)
			assert.Equal(t, m.ProbDensityMarks, loaded.ProbDensityMarks)
			assert.Equal(t, m.SVIndices, loaded.SVIndices)
			assert.Equal(t, m.Converged, loaded.Converged)
			assert.Equal(t, m.HasProbabilityModel(), loaded.HasProbabilityModel())

			want := decisionValues(t, m, tt.prob.X)
			got := decisionValues(t, loaded, tt.prob.X)
			for i := range want {
				for j := range want[i] {
					assert.Equal(t, math.Float64bits(want[i][j]), math.Float64bits(got[i][j]), "instance %d value %d", i, j)
				}
			}
		})
	}
}

func TestModelRoundTripPrecomputed(t *testing.T) {
	base := blobs(34, 10, [][]float64{{0, 0}, {2, 2}}, []float64{1, -1}, 0.7)
	linear := Parameter{KernelType: Linear}
	l := base.L()
	prob := &Problem{Y: base.Y}
	for i := 0; i < l; i++ {
		row := make([]float64, l)
		for j := 0; j < l; j++ {
			row[j] = KernelValue(base.X[i], base.X[j], linear)
		}
		prob.X = append(prob.X, Precomputed(i+1, row))
	}

	param := DefaultParameter()
	param.KernelType = PrecomputedKernel
	m := mustTrain(t, prob, param)

	loaded := roundTrip(t, m)
	assert.Equal(t, m.SV, loaded.SV)
	assert.Equal(t, decisionValues(t, m, prob.X), decisionValues(t, loaded, prob.X))

	// a test row too short for the stored serial numbers is rejected
	_, err := Predict(loaded, Precomputed(1, []float64{1}))
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve))
}

func TestModelFileRoundTrip(t *testing.T) {
	prob := binaryProblem()
	m := mustTrain(t, prob, DefaultParameter())
	path := filepath.Join(t.TempDir(), "model.txt")
	require.NoError(t, SaveModelFile(path, m))

	loaded, err := LoadModelFile(path)
	require.NoError(t, err)
	assert.Equal(t, decisionValues(t, m, prob.X), decisionValues(t, loaded, prob.X))

	_, err = LoadModelFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

const libsvmModel = `svm_type c_svc
kernel_type linear
nr_class 2
total_sv 2
rho 0
label 1 -1
nr_sv 1 1
SV
1 1:1 
-1 1:-1 
`

func TestLoadPlainLibsvmModel(t *testing.T) {
	m, err := LoadModel(strings.NewReader(libsvmModel))
	require.NoError(t, err)
	assert.True(t, m.Converged)
	assert.False(t, m.HasProbabilityModel())

	// f(x) = <x, 1> − <x, −1> = 2x₁
	label, dec, err := PredictValues(m, Dense([]float64{0.25}))
	require.NoError(t, err)
	assert.Equal(t, 1.0, label)
	assert.Equal(t, []float64{0.5}, dec)

	label, err = Predict(m, Dense([]float64{-3}))
	require.NoError(t, err)
	assert.Equal(t, -1.0, label)
}

func TestLoadModelSkipsUnknownKeys(t *testing.T) {
	text := "gosvm_model_version 1\nfuture_key a b c\n" + libsvmModel
	_, err := LoadModel(strings.NewReader(text))
	assert.NoError(t, err)
}

func oneClassHeader(kernel, totalSV string) string {
	return "svm_type one_class\nkernel_type " + kernel + "\nnr_class 2\ntotal_sv " + totalSV + "\nrho 0\nSV\n"
}

func TestLoadCorruptModel(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		field string
	}{
		{"empty", "", "SV"},
		{"no SV section", strings.Split(libsvmModel, "SV\n")[0], "SV"},
		{"truncated SV lines", strings.TrimSuffix(libsvmModel, "-1 1:-1 \n"), "SV"},
		{"extra SV line", libsvmModel + "1 1:3\n", "SV"},
		{"nr_sv mismatch", strings.Replace(libsvmModel, "nr_sv 1 1", "nr_sv 2 1", 1), "nr_sv"},
		{"rho count", strings.Replace(libsvmModel, "rho 0", "rho 0 1", 1), "rho"},
		{"label count", strings.Replace(libsvmModel, "label 1 -1", "label 1", 1), "label"},
		{"missing kernel", strings.Replace(libsvmModel, "kernel_type linear\n", "", 1), "kernel_type"},
		{"unknown svm type", strings.Replace(libsvmModel, "c_svc", "d_svc", 1), "svm_type"},
		{"bad coefficient", strings.Replace(libsvmModel, "1 1:1 ", "x 1:1", 1), "SV"},
		{"bad feature", strings.Replace(libsvmModel, "-1 1:-1 ", "-1 1-1", 1), "SV"},
		{"descending indices", strings.Replace(libsvmModel, "1 1:1 ", "1 2:1 1:1", 1), "SV"},
		{"bad number", strings.Replace(libsvmModel, "rho 0", "rho zero", 1), "rho"},
		{"newer version", "gosvm_model_version 99\n" + libsvmModel, "gosvm_model_version"},
		{"probA without probB", strings.Replace(libsvmModel, "nr_sv", "probA 1\nnr_sv", 1), "probA"},
		{"regression with labels", strings.Replace(strings.Replace(libsvmModel, "c_svc", "epsilon_svr", 1), "nr_sv 1 1\n", "", 1), "label"},
		{"huge total_sv without class counts", oneClassHeader("linear", "100000000000000000"), "SV"},
		{"huge total_sv", strings.Replace(libsvmModel, "total_sv 2", "total_sv 100000000000000000", 1), "nr_sv"},
		{"huge nr_sv", strings.Replace(libsvmModel, "nr_sv 1 1", "nr_sv 100000000000000000 1", 1), "nr_sv"},
		{"huge nr_class", strings.Replace(libsvmModel, "nr_class 2", "nr_class 4000000000", 1), "label"},
		{"huge nr_class for regression", strings.Replace(oneClassHeader("linear", "0"), "nr_class 2", "nr_class 4000000000", 1), "nr_class"},
		{"negative precomputed serial", oneClassHeader("precomputed", "1") + "1 0:-3\n", "SV"},
		{"fractional precomputed serial", oneClassHeader("precomputed", "1") + "1 0:1.5 1:2\n", "SV"},
		{"precomputed without serial", oneClassHeader("precomputed", "1") + "1 1:0.5\n", "SV"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := LoadModel(strings.NewReader(tt.text))
			require.Error(t, err)
			assert.Nil(t, m)
			var mfe *errors.ModelFormatError
			require.True(t, errors.As(err, &mfe), "got %v", err)
			assert.Equal(t, tt.field, mfe.Field)
		})
	}
}

func TestPredictRejectsInvalidPrecomputedSupportVector(t *testing.T) {
	m, err := LoadModel(strings.NewReader(oneClassHeader("precomputed", "1") + "1 0:2 1:1 2:1\n"))
	require.NoError(t, err)

	_, err = Predict(m, Vector{{Index: 0, Value: 1}, {Index: 1, Value: 0.5}})
	require.Error(t, err, "test vector is shorter than the largest serial number")

	m.SV[0][0].Value = -3
	assert.NotPanics(t, func() {
		_, err = Predict(m, Vector{{Index: 0, Value: 1}, {Index: 1, Value: 0.5}})
	})
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve), "got %v", err)
}
