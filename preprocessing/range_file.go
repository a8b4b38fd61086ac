package preprocessing

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/gosvm/core/model"
	"github.com/YuminosukeSato/gosvm/pkg/errors"
)

// SaveRange は svm-scale の -s 形式で範囲を書き出す:
//
//	y                 (ScaleY のときのみ)
//	y_lower y_upper
//	y_min y_max
//	x
//	lower upper
//	index min max     (範囲が退化していない特徴量ごと)
func (m *MinMaxScaler) SaveRange(w io.Writer) error {
	if err := m.state.RequireFitted("MinMaxScaler", "SaveRange"); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	if m.ScaleY {
		fmt.Fprintf(bw, "y\n%s %s\n%s %s\n", ff(m.YLower), ff(m.YUpper), ff(m.YMin), ff(m.YMax))
	}
	fmt.Fprintf(bw, "x\n%s %s\n", ff(m.Lower), ff(m.Upper))
	for j := 1; j < len(m.FeatureMax); j++ {
		if m.FeatureMin[j] != m.FeatureMax[j] {
			fmt.Fprintf(bw, "%d %s %s\n", j, ff(m.FeatureMin[j]), ff(m.FeatureMax[j]))
		}
	}
	return errors.Wrap(bw.Flush(), "failed to write range")
}

// SaveRangeFile は範囲をファイルに保存する
func (m *MinMaxScaler) SaveRangeFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create range file")
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "failed to close range file")
		}
	}()
	return m.SaveRange(f)
}

// LoadRange は SaveRange の出力から学習済みのスケーラーを復元する
func LoadRange(r io.Reader) (*MinMaxScaler, error) {
	const op = "preprocessing.LoadRange"
	sc := bufio.NewScanner(r)
	line := 0
	next := func() ([]string, bool) {
		for sc.Scan() {
			line++
			if f := strings.Fields(sc.Text()); len(f) > 0 {
				return f, true
			}
		}
		return nil, false
	}
	bad := func(reason string) error {
		return errors.NewValueError(op, fmt.Sprintf("line %d: %s", line, reason))
	}
	pair := func(what string) (float64, float64, error) {
		f, ok := next()
		if !ok || len(f) != 2 {
			return 0, 0, bad("expected " + what)
		}
		a, err1 := strconv.ParseFloat(f[0], 64)
		b, err2 := strconv.ParseFloat(f[1], 64)
		if err1 != nil || err2 != nil {
			return 0, 0, bad("invalid " + what)
		}
		return a, b, nil
	}

	m := &MinMaxScaler{state: model.NewStateManager()}
	f, ok := next()
	if !ok {
		return nil, errors.Wrap(errors.ErrEmptyData, op)
	}
	var err error
	if f[0] == "y" {
		m.ScaleY = true
		if m.YLower, m.YUpper, err = pair("y_lower y_upper"); err != nil {
			return nil, err
		}
		if m.YMin, m.YMax, err = pair("y_min y_max"); err != nil {
			return nil, err
		}
		if f, ok = next(); !ok {
			return nil, bad("missing x section")
		}
	}
	if len(f) != 1 || f[0] != "x" {
		return nil, bad("expected x section")
	}
	if m.Lower, m.Upper, err = pair("lower upper"); err != nil {
		return nil, err
	}

	m.FeatureMin = []float64{0}
	m.FeatureMax = []float64{0}
	for {
		f, ok := next()
		if !ok {
			break
		}
		if len(f) != 3 {
			return nil, bad("expected index min max")
		}
		j, err := strconv.Atoi(f[0])
		if err != nil || j < len(m.FeatureMax) {
			return nil, bad("feature indices must be positive and ascending")
		}
		lo, err1 := strconv.ParseFloat(f[1], 64)
		hi, err2 := strconv.ParseFloat(f[2], 64)
		if err1 != nil || err2 != nil {
			return nil, bad("invalid feature range")
		}
		for len(m.FeatureMax) < j {
			m.FeatureMin = append(m.FeatureMin, 0)
			m.FeatureMax = append(m.FeatureMax, 0)
		}
		m.FeatureMin = append(m.FeatureMin, lo)
		m.FeatureMax = append(m.FeatureMax, hi)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read range")
	}
	if err := m.checkRanges(); err != nil {
		return nil, err
	}
	m.state.SetDimensions(m.NumFeatures(), 0)
	m.state.SetFitted()
	return m, nil
}

// LoadRangeFile はファイルから範囲を読み込む
func LoadRangeFile(path string) (*MinMaxScaler, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open range file")
	}
	defer f.Close()
	return LoadRange(f)
}

func ff(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
