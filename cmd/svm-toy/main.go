// Command svm-toy trains on a two-dimensional LIBSVM data file and renders
// the decision regions, the training points and the support vectors to PNG.
//
//	svm-toy [training options] data_file output.png
//
// Only features 1 and 2 are used. Classifiers color each region by predicted
// class; regression and one-class models color it by decision value.
package main

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/YuminosukeSato/gosvm/internal/cli"
	"github.com/YuminosukeSato/gosvm/pkg/errors"
	"github.com/YuminosukeSato/gosvm/pkg/log"
	"github.com/YuminosukeSato/gosvm/svm"
)

const gridSize = 150

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "svm-toy: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stderr io.Writer) error {
	opts, rest, err := cli.ParseTrain("svm-toy", args, stderr)
	if err != nil {
		return err
	}
	if len(rest) != 2 {
		fmt.Fprintf(stderr, "Usage: svm-toy [options] data_file output.png\n%s", cli.TrainUsage)
		return errors.NewValueError("svm-toy", "expected data_file output.png")
	}
	if opts.Param.KernelType == svm.PrecomputedKernel {
		return errors.NewValidationError("t", "svm-toy cannot render a precomputed kernel", int(opts.Param.KernelType))
	}
	if err := cli.SetupLogging(opts.Quiet); err != nil {
		return err
	}

	prob, err := svm.ReadProblemFile(rest[0])
	if err != nil {
		return err
	}
	model, err := svm.Train(prob, opts.Param)
	if err != nil {
		return err
	}
	log.GetLoggerWithName("svm-toy").Info("model trained", log.NSVKey, model.NumSupportVectors())

	p, err := render(prob, model)
	if err != nil {
		return err
	}
	return errors.Wrap(p.Save(6*vg.Inch, 6*vg.Inch, rest[1]), "failed to save plot")
}

// coords returns features 1 and 2 of x.
func coords(x svm.Vector) (float64, float64) {
	var a, b float64
	for _, n := range x {
		switch n.Index {
		case 1:
			a = n.Value
		case 2:
			b = n.Value
		}
	}
	return a, b
}

// decisionGrid implements plotter.GridXYZ over the bounding box of the data.
type decisionGrid struct {
	x0, y0, dx, dy float64
	z              [][]float64 // z[c][r]
}

func (g *decisionGrid) Dims() (c, r int)   { return gridSize, gridSize }
func (g *decisionGrid) Z(c, r int) float64 { return g.z[c][r] }
func (g *decisionGrid) X(c int) float64    { return g.x0 + float64(c)*g.dx }
func (g *decisionGrid) Y(r int) float64    { return g.y0 + float64(r)*g.dy }

func newDecisionGrid(prob *svm.Problem, model *svm.Model) (*decisionGrid, error) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, x := range prob.X {
		a, b := coords(x)
		minX, maxX = math.Min(minX, a), math.Max(maxX, a)
		minY, maxY = math.Min(minY, b), math.Max(maxY, b)
	}
	padX := math.Max((maxX-minX)*0.1, 0.5)
	padY := math.Max((maxY-minY)*0.1, 0.5)
	g := &decisionGrid{
		x0: minX - padX,
		y0: minY - padY,
		dx: (maxX - minX + 2*padX) / (gridSize - 1),
		dy: (maxY - minY + 2*padY) / (gridSize - 1),
		z:  make([][]float64, gridSize),
	}

	classIndex := make(map[float64]float64)
	for i, l := range model.Labels() {
		classIndex[float64(l)] = float64(i)
	}
	for c := 0; c < gridSize; c++ {
		g.z[c] = make([]float64, gridSize)
		for r := 0; r < gridSize; r++ {
			x := svm.Dense([]float64{g.X(c), g.Y(r)})
			label, dec, err := svm.PredictValues(model, x)
			if err != nil {
				return nil, err
			}
			if model.SVMType().IsClassifier() {
				g.z[c][r] = classIndex[label]
			} else {
				g.z[c][r] = dec[0]
			}
		}
	}
	return g, nil
}

func render(prob *svm.Problem, model *svm.Model) (*plot.Plot, error) {
	grid, err := newDecisionGrid(prob, model)
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s, %s kernel", model.SVMType(), model.Param.KernelType)
	p.X.Label.Text = "Feature 1"
	p.Y.Label.Text = "Feature 2"

	colors := max(model.NumClasses(), 2)
	if !model.SVMType().IsClassifier() {
		colors = 12
	}
	heat := plotter.NewHeatMap(grid, palette.Heat(colors, 0.5))
	if heat.Min == heat.Max {
		heat.Min, heat.Max = heat.Min-1, heat.Max+1
	}
	p.Add(heat)

	pts := make(plotter.XYs, prob.L())
	for i, x := range prob.X {
		pts[i].X, pts[i].Y = coords(x)
	}
	data, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	data.Color = color.RGBA{A: 255}
	data.Radius = vg.Points(2)
	p.Add(data)
	p.Legend.Add("training data", data)

	if model.NumSupportVectors() > 0 {
		svs := make(plotter.XYs, model.NumSupportVectors())
		for i, sv := range model.SV {
			svs[i].X, svs[i].Y = coords(sv)
		}
		ring, err := plotter.NewScatter(svs)
		if err != nil {
			return nil, err
		}
		ring.Color = color.RGBA{R: 255, G: 255, B: 255, A: 255}
		ring.Shape = draw.RingGlyph{}
		ring.Radius = vg.Points(4)
		p.Add(ring)
		p.Legend.Add("support vectors", ring)
	}
	return p, nil
}
