// Some helpers using closures to generate values
package valgen

func MakeConstGen(constant int) func() int {
	return func() int {
		return constant
	}
}

func MakeIncreasingGen(start int) func() int {
	current := start - 1
	return func() int {
		current++
		return current
	}
}

// MakeIndexGen walks a rows x cols x depth grid in row-major order and yields
// i*cols + j*cols + k + 1 for each position. It wraps around after the last
// position.
func MakeIndexGen(rows, cols, depth int) func() int {
	pos := 0
	return func() int {
		i := pos / (cols * depth)
		j := (pos / depth) % cols
		k := pos % depth

		pos = (pos + 1) % (rows * cols * depth)

		return i*cols + j*cols + k + 1
	}
}
