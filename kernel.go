package saxpy

// Saxpy returns Scale*xi + yi rounded to float32.
//
// The explicit conversion of the product keeps the compiler from fusing the
// multiply and add, so every host backend rounds the same way.
func Saxpy(xi, yi float32) float32 {
	return float32(Scale*xi) + yi
}

// Apply computes r[i] = Saxpy(x[i], y[i]) for i in [0, len(r)).
// x and y must be at least as long as r.
func Apply(r, x, y []float32) {
	x = x[:len(r)]
	y = y[:len(r)]
	for i := range r {
		r[i] = Saxpy(x[i], y[i])
	}
}

// FillInputs returns the benchmark inputs x[i] = i and y[i] = i*i.
func FillInputs(n int) (x, y []float32) {
	x = make([]float32, n)
	y = make([]float32, n)
	for i := 0; i < n; i++ {
		x[i] = float32(i)
		y[i] = float32(i * i)
	}
	return x, y
}

// Reference returns the serial result for x and y, used for verification.
func Reference(x, y []float32) []float32 {
	r := make([]float32, len(x))
	Apply(r, x, y)
	return r
}

func checkLengths(op string, r, x, y []float32) error {
	if len(x) != len(y) || len(r) != len(x) {
		return &SaxpyError{
			Type:    ErrTypeInvalidArg,
			Op:      op,
			Message: "vector lengths differ",
			Err:     ErrLengthMismatch,
		}
	}
	return nil
}
