package core

import "fmt"

// TwiddleOrdering selects the permutation in which GenTwiddles emits the
// 2^(order-1) powers of a primitive root. CPU and GPU FFT back-ends must
// agree on this ordering for their outputs to be bit-identical.
type TwiddleOrdering int

const (
	// Natural ordering: twiddles[i] = omega^i.
	Natural TwiddleOrdering = iota
	// NaturalInverse ordering: twiddles[i] = omega^(-i).
	NaturalInverse
	// BitReverse ordering: twiddles indexed by bit-reversed i.
	BitReverse
	// BitReverseInverse ordering: bit-reversed, using omega^(-1).
	BitReverseInverse
)

// GenTwiddles returns the 2^(order-1) powers of a primitive 2^order-th root
// of unity in the requested ordering.
func GenTwiddles(field *Field, order int, ordering TwiddleOrdering) ([]*FieldElement, error) {
	if order < 1 {
		return nil, fmt.Errorf("order must be >= 1")
	}
	n := 1 << order
	omega, err := field.PrimitiveRootOfUnity(n)
	if err != nil {
		return nil, fmt.Errorf("failed to derive twiddle generator: %w", err)
	}
	if ordering == NaturalInverse || ordering == BitReverseInverse {
		omega, err = omega.Inv()
		if err != nil {
			return nil, fmt.Errorf("failed to invert twiddle generator: %w", err)
		}
	}

	half := n / 2
	twiddles := make([]*FieldElement, half)
	power := field.One()
	for i := 0; i < half; i++ {
		twiddles[i] = power
		power = power.Mul(omega)
	}

	if ordering == BitReverse || ordering == BitReverseInverse {
		bits := order - 1
		reordered := make([]*FieldElement, half)
		for i := 0; i < half; i++ {
			reordered[bitReverse(i, bits)] = twiddles[i]
		}
		return reordered, nil
	}
	return twiddles, nil
}

// BitReversePermutation permutes a in place so that a[i] and a[bitRev(i)]
// are swapped, for i < bitRev(i). It is used both to fix back-end output
// ordering and as a step inside the in-place FFT below.
func BitReversePermutation(a []*FieldElement) {
	n := len(a)
	bits := log2Exact(n)
	if bits < 0 {
		return
	}
	for i := 0; i < n; i++ {
		j := bitReverse(i, bits)
		if i < j {
			a[i], a[j] = a[j], a[i]
		}
	}
}

func bitReverse(x, bits int) int {
	result := 0
	for i := 0; i < bits; i++ {
		if x&(1<<i) != 0 {
			result |= 1 << (bits - 1 - i)
		}
	}
	return result
}

func log2Exact(n int) int {
	if n <= 0 || n&(n-1) != 0 {
		return -1
	}
	k := 0
	for n > 1 {
		n >>= 1
		k++
	}
	return k
}

// OrderedFFT evaluates the polynomial whose coefficients are given in
// natural order (values[i] = coefficient of x^i) at the 2^k-th roots of
// unity ⟨omega⟩, also in natural order. This is the radix-2
// decimation-in-time butterfly described in the FFT layer contract: bit
// reverse, then k stages where stage s has n/2^s groups of group_size = 2^s,
// each doing group_size/2 butterflies. Each stage indexes the twiddle table with a stride
// (n/groupSize), so twiddles must be in natural order (twiddles[i] =
// omega^i) - GenTwiddles(..., Natural) for the same omega.
func OrderedFFT(values []*FieldElement, field *Field, twiddles []*FieldElement) ([]*FieldElement, error) {
	n := len(values)
	k := log2Exact(n)
	if k < 0 {
		return nil, fmt.Errorf("FFT requires a power-of-two length, got %d", n)
	}
	if n > 1 && len(twiddles) != n/2 {
		return nil, fmt.Errorf("expected %d twiddles, got %d", n/2, len(twiddles))
	}

	result := make([]*FieldElement, n)
	copy(result, values)
	BitReversePermutation(result)

	for s := 1; s <= k; s++ {
		groupSize := 1 << s
		half := groupSize / 2
		twiddleStride := n / groupSize
		for start := 0; start < n; start += groupSize {
			for j := 0; j < half; j++ {
				w := twiddles[j*twiddleStride]
				u := result[start+j]
				t := w.Mul(result[start+j+half])
				result[start+j] = u.Add(t)
				result[start+j+half] = u.Sub(t)
			}
		}
	}
	return result, nil
}

// OrderedIFFT is the dual of OrderedFFT: given natural-order evaluations on
// ⟨omega⟩, it returns the natural-order coefficient vector. twiddlesInv must
// be generated with NaturalInverse for the same omega.
func OrderedIFFT(values []*FieldElement, field *Field, twiddlesInv []*FieldElement) ([]*FieldElement, error) {
	n := len(values)
	coeffs, err := OrderedFFT(values, field, twiddlesInv)
	if err != nil {
		return nil, err
	}
	nInv, err := field.NewElementFromInt64(int64(n)).Inv()
	if err != nil {
		return nil, fmt.Errorf("failed to invert domain size: %w", err)
	}
	for i := range coeffs {
		coeffs[i] = coeffs[i].Mul(nInv)
	}
	return coeffs, nil
}

// FFT is a convenience wrapper around OrderedFFT that derives its own
// natural-order twiddles; callers evaluating many vectors of the same size
// should call GenTwiddles once and use OrderedFFT directly instead.
func FFT(values []*FieldElement, field *Field) ([]*FieldElement, error) {
	n := len(values)
	k := log2Exact(n)
	if k < 0 {
		return nil, fmt.Errorf("FFT requires a power-of-two length, got %d", n)
	}
	if n == 1 {
		return append([]*FieldElement{}, values...), nil
	}
	twiddles, err := GenTwiddles(field, k, Natural)
	if err != nil {
		return nil, err
	}
	return OrderedFFT(values, field, twiddles)
}

// IFFT is the dual convenience wrapper of FFT.
func IFFT(values []*FieldElement, field *Field) ([]*FieldElement, error) {
	n := len(values)
	k := log2Exact(n)
	if k < 0 {
		return nil, fmt.Errorf("IFFT requires a power-of-two length, got %d", n)
	}
	if n == 1 {
		return append([]*FieldElement{}, values...), nil
	}
	twiddles, err := GenTwiddles(field, k, NaturalInverse)
	if err != nil {
		return nil, err
	}
	return OrderedIFFT(values, field, twiddles)
}
