package extract

// MaxImages is the number of images processed per document before a
// container walk stops.
const MaxImages = 100

// Budget counts image processing attempts for one document. Attempts are
// counted whether or not a symbol was found. A Budget is not safe for
// concurrent use.
type Budget struct {
	count int
}

// Consume records one attempt and reports whether the ceiling has been
// reached.
func (b *Budget) Consume() bool {
	b.count++
	return b.count >= MaxImages
}

// Exhausted reports whether the ceiling has been reached.
func (b *Budget) Exhausted() bool {
	return b.count >= MaxImages
}

// Reset zeroes the counter.
func (b *Budget) Reset() { b.count = 0 }

// Count returns the number of attempts recorded.
func (b *Budget) Count() int { return b.count }
