package spectrum

// Mask is a boolean pixel selector over a spectrum.
type Mask []bool

// Count returns the number of selected pixels.
func (m Mask) Count() int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}

// Indices returns the positions of the selected pixels in order.
func (m Mask) Indices() []int {
	out := make([]int, 0, m.Count())
	for i, v := range m {
		if v {
			out = append(out, i)
		}
	}
	return out
}

// Select returns the elements of x at selected positions. x must have the
// mask's length.
func (m Mask) Select(x []float64) []float64 {
	out := make([]float64, 0, m.Count())
	for i, v := range m {
		if v {
			out = append(out, x[i])
		}
	}
	return out
}

// And returns the intersection of m and o.
func (m Mask) And(o Mask) Mask {
	out := make(Mask, len(m))
	for i := range m {
		out[i] = m[i] && i < len(o) && o[i]
	}
	return out
}

// First returns the index of the first selected pixel, or -1.
func (m Mask) First() int {
	for i, v := range m {
		if v {
			return i
		}
	}
	return -1
}
