/*
Gaussian PSF fitting extracted from HocusFocus plugin by George Hilios.
Original Copyright © 2021 George Hilios <ghilios+NINA@googlemail.com>
Licensed under Mozilla Public License 2.0.
Ported to Go.
*/

package psfdiag

import "math"

var sigmaToFWHM = 2.0 * math.Sqrt(2.0*math.Log(2.0))

// DefaultFitGoodness is the minimum R-squared for a Gaussian refinement to
// be accepted.
const DefaultFitGoodness = 0.7

// RefinedPSF is the result of fitting an elliptical 2D Gaussian to the
// cropped core. It supplements the half-max disk FWHM estimate with an
// orientation-aware one; the disk estimate stays the primary reading.
type RefinedPSF struct {
	FWHMX        float64
	FWHMY        float64
	FWHMPixels   float64
	Eccentricity float64
	ThetaRadians float64
	RSquared     float64
}

// RefinePSF fits A·exp(-E(x,y)) + B over the buffer's luminosity around the
// centroid and derives FWHM and eccentricity from the fitted sigmas.
// Returns nil when the buffer is too small, the solver degenerates, or the
// fit explains less than goodnessThreshold of the variance.
func RefinePSF(buf *PixelBuffer, centroid Centroid, background, goodnessThreshold float64) *RefinedPSF {
	if goodnessThreshold <= 0 {
		goodnessThreshold = DefaultFitGoodness
	}
	n := buf.Width * buf.Height
	if n < 9 || centroid.MaxVal <= 0 {
		return nil
	}

	inputs := make([][2]float64, 0, n)
	outputs := make([]float64, 0, n)
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			inputs = append(inputs, [2]float64{float64(x) - centroid.X, float64(y) - centroid.Y})
			outputs = append(outputs, buf.Luminosity(x, y))
		}
	}

	w := float64(buf.Width)
	h := float64(buf.Height)
	sigmaUpper := math.Sqrt(w*w+h*h) / 2
	amp := math.Max(0, centroid.MaxVal-background)

	x0 := []float64{amp, background, 0, 0, w / 6, h / 6, 0}
	lower := []float64{0, 0, -w / 8, -h / 8, 0.1, 0.1, -math.Pi / 2}
	upper := []float64{510, 255, w / 8, h / 8, sigmaUpper, sigmaUpper, math.Pi / 2}
	scale := []float64{1, 1, 0.1, 0.1, 1, 1, 1}

	solution := levenbergMarquardt(inputs, outputs, x0, lower, upper, scale, 1e-8, 200)
	if solution == nil {
		return nil
	}

	sigX, sigY := solution[4], solution[5]
	if math.IsNaN(sigX) || math.IsNaN(sigY) {
		return nil
	}

	theta := math.Mod(math.Mod(solution[6], math.Pi)+math.Pi, math.Pi)
	if theta > math.Pi/2 {
		theta -= math.Pi
	}
	theta = -theta
	if sigY > sigX {
		if theta < 0 {
			theta += math.Pi / 2
		} else {
			theta -= math.Pi / 2
		}
		sigX, sigY = sigY, sigX
	}

	rSquared := fitRSquared(inputs, outputs, solution)
	if rSquared < goodnessThreshold {
		return nil
	}

	fwhmX := sigX * sigmaToFWHM
	fwhmY := sigY * sigmaToFWHM
	major := math.Max(fwhmX, fwhmY)
	minor := math.Min(fwhmX, fwhmY)

	return &RefinedPSF{
		FWHMX:        fwhmX,
		FWHMY:        fwhmY,
		FWHMPixels:   math.Sqrt(fwhmX * fwhmY),
		Eccentricity: math.Sqrt(1 - (minor*minor)/(major*major)),
		ThetaRadians: theta,
		RSquared:     rSquared,
	}
}

// gaussModel evaluates the elliptical Gaussian with parameters
// p = [A, B, x0, y0, sigX, sigY, theta] at an offset from the centroid.
func gaussModel(p []float64, in [2]float64) float64 {
	cosT, sinT := math.Cos(p[6]), math.Sin(p[6])
	x := (in[0]-p[2])*cosT + (in[1]-p[3])*sinT
	y := -(in[0]-p[2])*sinT + (in[1]-p[3])*cosT
	e := x*x/(2*p[4]*p[4]) + y*y/(2*p[5]*p[5])
	return p[1] + p[0]*math.Exp(-e)
}

func gaussGradient(p []float64, in [2]float64, grad []float64) {
	a := p[0]
	u, v := p[4], p[5]
	cosT, sinT := math.Cos(p[6]), math.Sin(p[6])
	x := (in[0]-p[2])*cosT + (in[1]-p[3])*sinT
	y := -(in[0]-p[2])*sinT + (in[1]-p[3])*cosT
	u2, v2 := u*u, v*v
	e := x*x/(2*u2) + y*y/(2*v2)
	eE := math.Exp(-e)

	grad[0] = eE
	grad[1] = 1
	grad[2] = a * (cosT*x/u2 - sinT*y/v2) * eE
	grad[3] = a * (sinT*x/u2 + cosT*y/v2) * eE
	grad[4] = a * x * x / (u2 * u) * eE
	grad[5] = a * y * y / (v2 * v) * eE
	grad[6] = a * x * y * (1/v2 - 1/u2) * eE
}

func fitRSquared(inputs [][2]float64, outputs, p []float64) float64 {
	yBar := 0.0
	for _, o := range outputs {
		yBar += o
	}
	yBar /= float64(len(outputs))

	tss, rss := 0.0, 0.0
	for i := range inputs {
		res := gaussModel(p, inputs[i]) - outputs[i]
		disp := outputs[i] - yBar
		rss += res * res
		tss += disp * disp
	}
	if tss > 0 {
		return 1 - rss/tss
	}
	return 0
}

// levenbergMarquardt minimizes the squared residual of gaussModel over the
// samples, with box constraints and diagonal damping scaled per parameter.
func levenbergMarquardt(inputs [][2]float64, outputs, x0, lower, upper, scale []float64, tolerance float64, maxIter int) []float64 {
	n := len(x0)
	m := len(inputs)

	x := make([]float64, n)
	copy(x, x0)
	for j := range x {
		x[j] = clampF(x[j], lower[j], upper[j])
	}

	fi := make([]float64, m)
	jac := make([][]float64, m)
	for i := range jac {
		jac[i] = make([]float64, n)
	}
	residualsAndJacobian(inputs, outputs, x, fi, jac)
	cost := sumSquares(fi)

	lambda := 1e-3
	nu := 2.0

	jtj := newSquare(n)
	jtf := make([]float64, n)
	a := newSquare(n)
	rhs := make([]float64, n)
	dx := make([]float64, n)
	xNew := make([]float64, n)
	fiNew := make([]float64, m)

	for iter := 0; iter < maxIter; iter++ {
		for i := 0; i < n; i++ {
			jtf[i] = 0
			for j := 0; j < n; j++ {
				jtj[i][j] = 0
			}
		}
		for k := 0; k < m; k++ {
			for i := 0; i < n; i++ {
				ji := jac[k][i]
				jtf[i] += ji * fi[k]
				for j := i; j < n; j++ {
					jtj[i][j] += ji * jac[k][j]
				}
			}
		}
		for i := 0; i < n; i++ {
			for j := 0; j < i; j++ {
				jtj[i][j] = jtj[j][i]
			}
		}

		gradNorm := 0.0
		for i := 0; i < n; i++ {
			gradNorm += jtf[i] * jtf[i]
		}
		if math.Sqrt(gradNorm) < tolerance*cost {
			break
		}

		for tries := 0; tries < 20; tries++ {
			for i := 0; i < n; i++ {
				copy(a[i], jtj[i])
				a[i][i] += lambda * scale[i] * scale[i]
				rhs[i] = -jtf[i]
			}

			if !solveLinearSystem(a, rhs, dx) {
				lambda *= nu
				continue
			}

			for j := 0; j < n; j++ {
				xNew[j] = clampF(x[j]+dx[j], lower[j], upper[j])
			}
			for k := 0; k < m; k++ {
				fiNew[k] = gaussModel(xNew, inputs[k]) - outputs[k]
			}
			costNew := sumSquares(fiNew)

			if costNew < cost {
				improvement := (cost - costNew) / cost
				copy(x, xNew)
				cost = costNew
				lambda = math.Max(lambda/3, 1e-15)
				nu = 2.0
				residualsAndJacobian(inputs, outputs, x, fi, jac)
				if improvement < tolerance {
					return x
				}
				break
			}
			lambda *= nu
			nu *= 2
			if lambda > 1e16 {
				return x
			}
		}
	}
	return x
}

func residualsAndJacobian(inputs [][2]float64, outputs, x, fi []float64, jac [][]float64) {
	for k := range inputs {
		fi[k] = gaussModel(x, inputs[k]) - outputs[k]
		gaussGradient(x, inputs[k], jac[k])
	}
}

func newSquare(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}

func sumSquares(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x * x
	}
	return s
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// solveLinearSystem solves Ax = b in place via Gaussian elimination with
// partial pivoting. Returns false for a singular system.
func solveLinearSystem(src [][]float64, b, x []float64) bool {
	n := len(b)
	a := newSquare(n)
	for i := range a {
		copy(a[i], src[i])
	}
	rhs := make([]float64, n)
	copy(rhs, b)

	for col := 0; col < n; col++ {
		maxRow := col
		maxVal := math.Abs(a[col][col])
		for row := col + 1; row < n; row++ {
			if av := math.Abs(a[row][col]); av > maxVal {
				maxVal = av
				maxRow = row
			}
		}
		if maxVal < 1e-30 {
			return false
		}
		if maxRow != col {
			a[col], a[maxRow] = a[maxRow], a[col]
			rhs[col], rhs[maxRow] = rhs[maxRow], rhs[col]
		}
		pivot := a[col][col]
		for row := col + 1; row < n; row++ {
			factor := a[row][col] / pivot
			for j := col; j < n; j++ {
				a[row][j] -= factor * a[col][j]
			}
			rhs[row] -= factor * rhs[col]
		}
	}

	for row := n - 1; row >= 0; row-- {
		sum := rhs[row]
		for j := row + 1; j < n; j++ {
			sum -= a[row][j] * x[j]
		}
		x[row] = sum / a[row][row]
	}
	return true
}
