// Package metrics compares heart volumes against a reference phantom.
package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"heartslicer/internal/models"
)

// Similarity holds the agreement between a heart and the reference heart.
// Both volumes are divided by their own maximum before comparison so that
// phantoms with different count scales remain comparable.
type Similarity struct {
	// Phantom is the compared phantom, Reference the phantom it is compared to
	Phantom   string `yaml:"phantom"`
	Reference string `yaml:"reference"`

	// RMSE is the root mean square difference of the normalised intensities
	RMSE float64 `yaml:"rmse"`

	// SSIM is the global structural similarity index, 1 for identical volumes
	SSIM float64 `yaml:"ssim"`

	// Correlation is the Pearson correlation of the voxel intensities
	Correlation float64 `yaml:"correlation"`

	// MI is the mutual information under a Gaussian approximation
	MI float64 `yaml:"mi"`

	// EntropyDiff is the absolute difference of the 256-bin Shannon entropies
	EntropyDiff float64 `yaml:"entropyDiff"`
}

// Compare computes the similarity of heart to reference
func Compare(name string, heart *models.Volume, refName string, reference *models.Volume) (Similarity, error) {
	if heart.Shape != reference.Shape {
		return Similarity{}, fmt.Errorf("cannot compare %s %v with %s %v", name, heart.Shape, refName, reference.Shape)
	}

	x := normalized(reference.Data)
	y := normalized(heart.Data)

	return Similarity{
		Phantom:     name,
		Reference:   refName,
		RMSE:        rmse(x, y),
		SSIM:        ssim(x, y),
		Correlation: correlation(x, y),
		MI:          mutualInformation(x, y),
		EntropyDiff: math.Abs(entropy(x) - entropy(y)),
	}, nil
}

func normalized(data []float64) []float64 {
	out := make([]float64, len(data))
	copy(out, data)
	if len(out) == 0 {
		return out
	}
	if m := floats.Max(out); m != 0 {
		for i := range out {
			out[i] /= m
		}
	}
	return out
}

func rmse(x, y []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return floats.Distance(x, y, 2) / math.Sqrt(float64(len(x)))
}

// ssim evaluates the structural similarity over the whole volume with a dynamic range of 1
func ssim(x, y []float64) float64 {
	const (
		k1 = 0.01
		k2 = 0.03
	)
	c1 := k1 * k1
	c2 := k2 * k2

	if len(x) < 2 {
		return 0
	}
	muX, muY := stat.Mean(x, nil), stat.Mean(y, nil)
	sigmaX, sigmaY := stat.Variance(x, nil), stat.Variance(y, nil)
	sigmaXY := stat.Covariance(x, y, nil)

	num := (2*muX*muY + c1) * (2*sigmaXY + c2)
	den := (muX*muX + muY*muY + c1) * (sigmaX + sigmaY + c2)
	if den <= 0 {
		return 0
	}
	return num / den
}

func correlation(x, y []float64) float64 {
	if len(x) < 2 || stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return 0
	}
	return stat.Correlation(x, y, nil)
}

// mutualInformation approximates MI as 0.5*log(var(X)var(Y) / (var(X)var(Y) - cov(X,Y)^2))
func mutualInformation(x, y []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	varX, varY := stat.Variance(x, nil), stat.Variance(y, nil)
	cov := stat.Covariance(x, y, nil)
	if varX <= 0 || varY <= 0 {
		return 0
	}
	det := varX*varY - cov*cov
	if det <= 0 {
		// perfectly correlated data has unbounded MI
		return math.Inf(1)
	}
	return 0.5 * math.Log(varX*varY/det)
}

// entropy is the Shannon entropy of a 256-bin histogram of data
func entropy(data []float64) float64 {
	const numBins = 256
	if len(data) == 0 {
		return 0
	}
	lo, hi := floats.Min(data), floats.Max(data)
	if hi <= lo {
		return 0
	}

	hist := make([]float64, numBins)
	width := (hi - lo) / numBins
	for _, v := range data {
		bin := int((v - lo) / width)
		if bin >= numBins {
			bin = numBins - 1
		}
		hist[bin]++
	}

	n := float64(len(data))
	var h float64
	for _, count := range hist {
		if count > 0 {
			p := count / n
			h -= p * math.Log2(p)
		}
	}
	return h
}
