package pixel

// Buffer is one frame for a strip of fixed length. The render loop owns it
// for the duration of a tick and hands it to the sink by reference.
type Buffer []Color

// NewBuffer allocates a cleared buffer of n pixels.
func NewBuffer(n int) Buffer {
	return make(Buffer, n)
}

// Len returns the strip length.
func (b Buffer) Len() int {
	return len(b)
}

// Clear turns every pixel off.
func (b Buffer) Clear() {
	clear(b)
}

// Fill sets every pixel to c.
func (b Buffer) Fill(c Color) {
	for i := range b {
		b[i] = c
	}
}

// Set writes c at index i. Out of range indices are ignored so scripted
// effects can draw partially off-strip shapes on short strips.
func (b Buffer) Set(i int, c Color) {
	if i < 0 || i >= len(b) {
		return
	}
	b[i] = c
}

// At returns the color at index i, or Off when i is out of range.
func (b Buffer) At(i int) Color {
	if i < 0 || i >= len(b) {
		return Off
	}
	return b[i]
}

// Lit counts pixels that are not off.
func (b Buffer) Lit() int {
	n := 0
	for _, c := range b {
		if !c.IsOff() {
			n++
		}
	}
	return n
}
