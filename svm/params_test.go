package svm

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/gosvm/pkg/errors"
)

func TestParameterValidate(t *testing.T) {
	prob := blobs(61, 5, [][]float64{{0}, {1}}, []float64{1, -1}, 0.3)
	unbalanced := &Problem{
		Y: []float64{1, 1, 1, 1, -1},
		X: []Vector{Dense([]float64{1}), Dense([]float64{2}), Dense([]float64{3}), Dense([]float64{4}), Dense([]float64{5})},
	}

	tests := []struct {
		name   string
		mutate func(p *Parameter)
		prob   *Problem
		param  string // "" means valid
	}{
		{"defaults", func(p *Parameter) {}, prob, ""},
		{"unknown svm type", func(p *Parameter) { p.SVMType = 9 }, prob, "svm_type"},
		{"unknown kernel", func(p *Parameter) { p.KernelType = -1 }, prob, "kernel_type"},
		{"negative gamma", func(p *Parameter) { p.Gamma = -1 }, prob, "gamma"},
		{"negative degree", func(p *Parameter) { p.Degree = -2 }, prob, "degree"},
		{"zero cache", func(p *Parameter) { p.CacheSize = 0 }, prob, "cache_size"},
		{"zero eps", func(p *Parameter) { p.Eps = 0 }, prob, "eps"},
		{"zero C", func(p *Parameter) { p.C = 0 }, prob, "C"},
		{"C ignored by nu-SVC", func(p *Parameter) { p.SVMType, p.C = NuSVC, 0 }, prob, ""},
		{"nu above one", func(p *Parameter) { p.SVMType, p.Nu = OneClass, 1.5 }, prob, "nu"},
		{"zero nu", func(p *Parameter) { p.SVMType, p.Nu = NuSVR, 0 }, prob, "nu"},
		{"negative p", func(p *Parameter) { p.SVMType, p.P = EpsilonSVR, -0.1 }, prob, "p"},
		{"weight length", func(p *Parameter) { p.WeightLabel = []int{1}; p.Weight = nil }, prob, "weight"},
		{"negative weight", func(p *Parameter) { p.WeightLabel = []int{1}; p.Weight = []float64{-1} }, prob, "weight"},
		{"unknown weight label", func(p *Parameter) { p.WeightLabel = []int{3}; p.Weight = []float64{2} }, prob, ""},
		{"NaN gamma", func(p *Parameter) { p.Gamma = math.NaN() }, prob, "gamma"},
		{"infinite gamma", func(p *Parameter) { p.Gamma = math.Inf(1) }, prob, "gamma"},
		{"NaN coef0", func(p *Parameter) { p.Coef0 = math.NaN() }, prob, "coef0"},
		{"NaN cache", func(p *Parameter) { p.CacheSize = math.NaN() }, prob, "cache_size"},
		{"NaN eps", func(p *Parameter) { p.Eps = math.NaN() }, prob, "eps"},
		{"NaN C", func(p *Parameter) { p.C = math.NaN() }, prob, "C"},
		{"infinite C", func(p *Parameter) { p.C = math.Inf(1) }, prob, "C"},
		{"NaN nu", func(p *Parameter) { p.SVMType, p.Nu = NuSVC, math.NaN() }, prob, "nu"},
		{"NaN p", func(p *Parameter) { p.SVMType, p.P = EpsilonSVR, math.NaN() }, prob, "p"},
		{"NaN weight", func(p *Parameter) { p.WeightLabel = []int{1}; p.Weight = []float64{math.NaN()} }, prob, "weight"},
		{"infeasible nu", func(p *Parameter) { p.SVMType, p.Nu = NuSVC, 0.9 }, unbalanced, "nu"},
		{"feasible nu", func(p *Parameter) { p.SVMType, p.Nu = NuSVC, 0.4 }, unbalanced, ""},
		{"precomputed without serial", func(p *Parameter) { p.KernelType = PrecomputedKernel }, prob, "kernel_type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			param := DefaultParameter()
			tt.mutate(&param)
			err := param.Validate(tt.prob)
			if tt.param == "" {
				assert.NoError(t, err)
				return
			}
			var ve *errors.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.param, ve.ParamName)
		})
	}
}

func TestParameterValidateRejectsFractionalClassLabels(t *testing.T) {
	prob := &Problem{
		Y: []float64{1.5, 1.7, -1},
		X: []Vector{Dense([]float64{1}), Dense([]float64{2}), Dense([]float64{3})},
	}
	err := DefaultParameter().Validate(prob)
	var ve *errors.ValueError
	require.True(t, errors.As(err, &ve), "got %v", err)

	// regression targets may be fractional
	param := DefaultParameter()
	param.SVMType = EpsilonSVR
	assert.NoError(t, param.Validate(prob))
}

func TestTrainRejectsNaNGamma(t *testing.T) {
	prob := blobs(3, 5, [][]float64{{0}, {1}}, []float64{1, -1}, 0.3)
	param := DefaultParameter()
	param.Gamma = math.NaN()
	_, err := Train(prob, param)
	var ve *errors.ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)
	assert.Equal(t, "gamma", ve.ParamName)
}

func TestResolveGamma(t *testing.T) {
	prob := &Problem{Y: []float64{1}, X: []Vector{{{Index: 4, Value: 1}}}}
	p := DefaultParameter().resolveGamma(prob)
	assert.Equal(t, 0.25, p.Gamma)

	lin := DefaultParameter()
	lin.KernelType = Linear
	assert.Zero(t, lin.resolveGamma(prob).Gamma)

	set := DefaultParameter()
	set.Gamma = 2
	assert.Equal(t, 2.0, set.resolveGamma(prob).Gamma)
}

func TestParameterJSON(t *testing.T) {
	p := DefaultParameter()
	p.SVMType = NuSVR
	p.KernelType = Sigmoid
	p.WeightLabel = []int{1}
	p.Weight = []float64{3}

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"svm_type":"nu_svr"`)
	assert.Contains(t, string(data), `"kernel_type":"sigmoid"`)

	var back Parameter
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, p, back)

	clone := p.Clone()
	clone.Weight[0] = 7
	assert.Equal(t, 3.0, p.Weight[0], "Clone must not share weight slices")
}

func TestParseTypes(t *testing.T) {
	for _, typ := range []SVMType{CSVC, NuSVC, OneClass, EpsilonSVR, NuSVR} {
		got, err := ParseSVMType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}
	for _, k := range []KernelType{Linear, Poly, RBF, Sigmoid, PrecomputedKernel} {
		got, err := ParseKernelType(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseSVMType("svc")
	assert.Error(t, err)
	_, err = ParseKernelType("gaussian")
	assert.Error(t, err)
}
