package vector

import (
	"math"

	"github.com/efebarandurmaz/ompcfg/internal/construct"
)

// Dimensions lists what each profile component counts.
var Dimensions = []string{
	"parallel_regions",
	"tasks",
	"for_loops",
	"single_regions",
	"sync_points",
	"untied",
	"firstprivate",
	"shared",
	"nowait",
	"private",
}

// Dim is the profile vector length.
var Dim = len(Dimensions)

// Profile summarizes an inventory as an L2-normalized count vector. An empty
// inventory yields the zero vector.
func Profile(inv *construct.Inventory) []float32 {
	v := make([]float32, Dim)
	if inv == nil {
		return v
	}
	for i, c := range construct.Categories {
		v[i] = float32(inv.Count(c))
	}
	for _, c := range inv.All() {
		if c.Untied {
			v[5]++
		}
		if c.FirstPrivate {
			v[6]++
		}
		if c.Shared {
			v[7]++
		}
		if c.NoWait {
			v[8]++
		}
		if c.Private {
			v[9]++
		}
	}

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
	return v
}

// Cosine returns the cosine similarity of a and b, or 0 when either is zero.
func Cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		if i >= len(b) {
			break
		}
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
