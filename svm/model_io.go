package svm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/gosvm/pkg/errors"
)

// ModelFormatVersion is written on the first line of every saved model.
// Files without the version line are read as plain LIBSVM models.
const ModelFormatVersion = 1

const versionKey = "gosvm_model_version"

// SaveModel writes m in the LIBSVM text model format. Floating point values
// are written with the shortest representation that parses back to the same
// bits, so a loaded model predicts exactly like the saved one.
func SaveModel(w io.Writer, m *Model) error {
	if m == nil {
		return errors.NewValueError("svm.SaveModel", "nil model")
	}
	bw := bufio.NewWriter(w)
	p := m.Param

	fmt.Fprintf(bw, "%s %d\n", versionKey, ModelFormatVersion)
	fmt.Fprintf(bw, "svm_type %s\n", p.SVMType)
	fmt.Fprintf(bw, "kernel_type %s\n", p.KernelType)
	if p.KernelType == Poly {
		fmt.Fprintf(bw, "degree %d\n", p.Degree)
	}
	if p.KernelType.usesGamma() {
		fmt.Fprintf(bw, "gamma %s\n", formatFloat(p.Gamma))
	}
	if p.KernelType == Poly || p.KernelType == Sigmoid {
		fmt.Fprintf(bw, "coef0 %s\n", formatFloat(p.Coef0))
	}

	fmt.Fprintf(bw, "nr_class %d\n", m.NrClass)
	fmt.Fprintf(bw, "total_sv %d\n", len(m.SV))
	writeFloats(bw, "rho", m.Rho)
	if m.Label != nil {
		writeInts(bw, "label", m.Label)
	}
	if m.ProbA != nil {
		writeFloats(bw, "probA", m.ProbA)
	}
	if m.ProbB != nil {
		writeFloats(bw, "probB", m.ProbB)
	}
	if m.ProbDensityMarks != nil {
		writeFloats(bw, "prob_density_marks", m.ProbDensityMarks)
	}
	if m.NSV != nil {
		writeInts(bw, "nr_sv", m.NSV)
	}
	if m.SVIndices != nil {
		writeInts(bw, "sv_indices", m.SVIndices)
	}
	if m.Converged {
		bw.WriteString("converged 1\n")
	} else {
		bw.WriteString("converged 0\n")
	}

	bw.WriteString("SV\n")
	for i, sv := range m.SV {
		var sb strings.Builder
		for j := range m.SVCoef {
			if j > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(formatFloat(m.SVCoef[j][i]))
		}
		for k, n := range sv {
			if sb.Len() > 0 || k > 0 {
				sb.WriteByte(' ')
			}
			if p.KernelType == PrecomputedKernel && n.Index == 0 {
				fmt.Fprintf(&sb, "0:%d", int(n.Value))
				continue
			}
			fmt.Fprintf(&sb, "%d:%s", n.Index, formatFloat(n.Value))
		}
		sb.WriteByte('\n')
		bw.WriteString(sb.String())
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "svm.SaveModel")
	}
	return nil
}

// SaveModelFile writes m to path.
func SaveModelFile(path string, m *Model) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "svm.SaveModelFile %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "svm.SaveModelFile %s", path)
		}
	}()
	return SaveModel(f, m)
}

// LoadModelFile reads a model from path.
func LoadModelFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "svm.LoadModelFile %s", path)
	}
	defer f.Close()
	return LoadModel(f)
}

// LoadModel reads a model written by SaveModel or by LIBSVM. Any structural
// inconsistency (missing header fields, count mismatches, malformed or
// missing support vector lines) yields *errors.ModelFormatError and no model.
func LoadModel(r io.Reader) (*Model, error) {
	lr := &lineReader{r: bufio.NewReader(r)}
	m := &Model{Converged: true}
	seen := map[string]bool{}
	totalSV := 0

	for {
		fields, ok, err := lr.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.NewModelFormatError(lr.line, "SV", "missing SV section")
		}
		if len(fields) == 0 {
			continue
		}
		key, args := fields[0], fields[1:]
		if key == "SV" {
			break
		}
		seen[key] = true
		if err := parseHeader(m, &totalSV, lr.line, key, args); err != nil {
			return nil, err
		}
	}

	if err := checkHeader(m, seen, totalSV); err != nil {
		return nil, err
	}

	// rows are appended as read so that total_sv never sizes an allocation
	nCoef := m.NrClass - 1
	m.SVCoef = make([][]float64, nCoef)
	for i := 0; i < totalSV; i++ {
		fields, ok, err := lr.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.NewModelFormatError(lr.line, "SV",
				fmt.Sprintf("truncated: expected %d support vectors, got %d", totalSV, i))
		}
		if len(fields) < nCoef {
			return nil, errors.NewModelFormatError(lr.line, "SV",
				fmt.Sprintf("expected %d coefficients", nCoef))
		}
		for j := 0; j < nCoef; j++ {
			v, err := strconv.ParseFloat(fields[j], 64)
			if err != nil {
				return nil, errors.NewModelFormatError(lr.line, "SV", "invalid coefficient "+strconv.Quote(fields[j]))
			}
			m.SVCoef[j] = append(m.SVCoef[j], v)
		}
		sv, err := parseNodes(fields[nCoef:])
		if err != nil {
			return nil, errors.NewModelFormatError(lr.line, "SV", err.Error())
		}
		if m.Param.KernelType == PrecomputedKernel {
			if _, ok := serialNumber(sv); !ok {
				return nil, errors.NewModelFormatError(lr.line, "SV",
					"precomputed support vector must start with 0:serial_number (an integer >= 1)")
			}
		}
		m.SV = append(m.SV, sv)
	}

	for {
		fields, ok, err := lr.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if len(fields) > 0 {
			return nil, errors.NewModelFormatError(lr.line, "SV",
				fmt.Sprintf("more than total_sv=%d support vectors", totalSV))
		}
	}
	return m, nil
}

func parseHeader(m *Model, totalSV *int, line int, key string, args []string) error {
	bad := func(reason string) error { return errors.NewModelFormatError(line, key, reason) }
	one := func() (string, error) {
		if len(args) != 1 {
			return "", bad(fmt.Sprintf("expected one value, got %d", len(args)))
		}
		return args[0], nil
	}

	switch key {
	case versionKey:
		s, err := one()
		if err != nil {
			return err
		}
		v, perr := strconv.Atoi(s)
		if perr != nil || v < 0 {
			return bad("invalid version " + strconv.Quote(s))
		}
		if v > ModelFormatVersion {
			return bad(fmt.Sprintf("unsupported model format version %d (newest known is %d)", v, ModelFormatVersion))
		}
	case "svm_type":
		s, err := one()
		if err != nil {
			return err
		}
		t, perr := ParseSVMType(s)
		if perr != nil {
			return bad("unknown svm type " + strconv.Quote(s))
		}
		m.Param.SVMType = t
	case "kernel_type":
		s, err := one()
		if err != nil {
			return err
		}
		k, perr := ParseKernelType(s)
		if perr != nil {
			return bad("unknown kernel type " + strconv.Quote(s))
		}
		m.Param.KernelType = k
	case "degree":
		v, err := parseInts(bad, args)
		if err != nil || len(v) != 1 {
			return bad("expected one integer")
		}
		m.Param.Degree = v[0]
	case "gamma", "coef0":
		v, err := parseFloats(bad, args)
		if err != nil || len(v) != 1 {
			return bad("expected one number")
		}
		if key == "gamma" {
			m.Param.Gamma = v[0]
		} else {
			m.Param.Coef0 = v[0]
		}
	case "nr_class", "total_sv":
		v, err := parseInts(bad, args)
		if err != nil || len(v) != 1 || v[0] < 0 {
			return bad("expected one non-negative integer")
		}
		if key == "nr_class" {
			m.NrClass = v[0]
		} else {
			*totalSV = v[0]
		}
	case "rho", "probA", "probB", "prob_density_marks":
		v, err := parseFloats(bad, args)
		if err != nil {
			return err
		}
		switch key {
		case "rho":
			m.Rho = v
		case "probA":
			m.ProbA = v
		case "probB":
			m.ProbB = v
		default:
			m.ProbDensityMarks = v
		}
	case "label", "nr_sv", "sv_indices":
		v, err := parseInts(bad, args)
		if err != nil {
			return err
		}
		switch key {
		case "label":
			m.Label = v
		case "nr_sv":
			m.NSV = v
		default:
			m.SVIndices = v
		}
	case "converged":
		s, err := one()
		if err != nil {
			return err
		}
		m.Converged = s != "0"
	}
	// keys from newer format versions are skipped
	return nil
}

// checkHeader verifies the header counts against each other. nr_class is
// bounded by the label line (or fixed at 2) before any pair count is derived
// from it, and total_sv must agree with nr_sv and sv_indices.
func checkHeader(m *Model, seen map[string]bool, totalSV int) error {
	for _, key := range []string{"svm_type", "kernel_type", "nr_class", "total_sv", "rho"} {
		if !seen[key] {
			return errors.NewModelFormatError(0, key, "missing required header field")
		}
	}
	k := m.NrClass

	if !m.Param.SVMType.IsClassifier() && k != 2 {
		return errors.NewModelFormatError(0, "nr_class", fmt.Sprintf("%s model must have nr_class 2, got %d", m.Param.SVMType, k))
	}
	if m.Param.SVMType.IsClassifier() {
		if k < 1 {
			return errors.NewModelFormatError(0, "nr_class", "classifier needs at least one class")
		}
		if len(m.Label) != k {
			return errors.NewModelFormatError(0, "label", fmt.Sprintf("expected %d labels, got %d", k, len(m.Label)))
		}
	}
	pairs := k * (k - 1) / 2
	if len(m.Rho) != pairs {
		return errors.NewModelFormatError(0, "rho", fmt.Sprintf("expected %d values, got %d", pairs, len(m.Rho)))
	}

	if m.Param.SVMType.IsClassifier() {
		if len(m.NSV) != k {
			return errors.NewModelFormatError(0, "nr_sv", fmt.Sprintf("expected %d counts, got %d", k, len(m.NSV)))
		}
		sum := 0
		for _, n := range m.NSV {
			if n < 0 || n > totalSV {
				return errors.NewModelFormatError(0, "nr_sv", fmt.Sprintf("count %d outside [0, total_sv=%d]", n, totalSV))
			}
			sum += n
		}
		if sum != totalSV {
			return errors.NewModelFormatError(0, "nr_sv", fmt.Sprintf("counts sum to %d, total_sv is %d", sum, totalSV))
		}
		if (m.ProbA == nil) != (m.ProbB == nil) {
			return errors.NewModelFormatError(0, "probA", "probA and probB must appear together")
		}
		if m.ProbA != nil && (len(m.ProbA) != pairs || len(m.ProbB) != pairs) {
			return errors.NewModelFormatError(0, "probA", fmt.Sprintf("expected %d pairwise values", pairs))
		}
	} else {
		if m.Label != nil || m.NSV != nil {
			return errors.NewModelFormatError(0, "label", fmt.Sprintf("%s model must not carry class labels", m.Param.SVMType))
		}
		if m.ProbA != nil && len(m.ProbA) != 1 {
			return errors.NewModelFormatError(0, "probA", "expected one value")
		}
	}
	if m.ProbDensityMarks != nil && len(m.ProbDensityMarks) != densityMarks {
		return errors.NewModelFormatError(0, "prob_density_marks",
			fmt.Sprintf("expected %d marks, got %d", densityMarks, len(m.ProbDensityMarks)))
	}
	if m.SVIndices != nil && len(m.SVIndices) != totalSV {
		return errors.NewModelFormatError(0, "sv_indices",
			fmt.Sprintf("expected %d indices, got %d", totalSV, len(m.SVIndices)))
	}
	m.Param.Probability = m.HasProbabilityModel()
	return nil
}

// parseNodes parses "index:value" pairs with strictly ascending indices.
func parseNodes(fields []string) (Vector, error) {
	v := make(Vector, 0, len(fields))
	prev := -1
	for _, f := range fields {
		idx, val, ok := strings.Cut(f, ":")
		if !ok {
			return nil, errors.Newf("malformed feature %q", f)
		}
		i, err := strconv.Atoi(idx)
		if err != nil || i < 0 {
			return nil, errors.Newf("invalid feature index %q", idx)
		}
		if i <= prev {
			return nil, errors.Newf("feature indices must be strictly ascending (got %d after %d)", i, prev)
		}
		x, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, errors.Newf("invalid feature value %q", val)
		}
		v = append(v, Node{Index: i, Value: x})
		prev = i
	}
	return v, nil
}

func parseFloats(bad func(string) error, args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, bad("invalid number " + strconv.Quote(a))
		}
		out[i] = v
	}
	return out, nil
}

func parseInts(bad func(string) error, args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, bad("invalid integer " + strconv.Quote(a))
		}
		out[i] = v
	}
	return out, nil
}

func writeFloats(w *bufio.Writer, key string, vs []float64) {
	w.WriteString(key)
	for _, v := range vs {
		w.WriteByte(' ')
		w.WriteString(formatFloat(v))
	}
	w.WriteByte('\n')
}

func writeInts(w *bufio.Writer, key string, vs []int) {
	w.WriteString(key)
	for _, v := range vs {
		w.WriteByte(' ')
		w.WriteString(strconv.Itoa(v))
	}
	w.WriteByte('\n')
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// lineReader splits input into whitespace separated fields line by line
// without a line length limit.
type lineReader struct {
	r    *bufio.Reader
	line int
}

func (lr *lineReader) next() ([]string, bool, error) {
	s, err := lr.r.ReadString('\n')
	if err == io.EOF && s == "" {
		return nil, false, nil
	}
	if err != nil && err != io.EOF {
		return nil, false, errors.Wrapf(err, "svm.LoadModel: line %d", lr.line+1)
	}
	lr.line++
	return strings.Fields(s), true, nil
}
