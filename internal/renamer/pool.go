package renamer

// ----------------------------------------------------------------------------
// Name Pools
// ----------------------------------------------------------------------------

// Alphabets of the name pools.
const (
	UpperAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	LowerAlphabet = "abcdefghijklmnopqrstuvwxyz"
	MixedAlphabet = LowerAlphabet + UpperAlphabet
)

// NameAt returns the n-th name (0-based) of the sequence over alphabet:
// all one-character names, then all two-character names, and so on, each
// length in lexicographic order ("a" ... "z", "aa", "ab", ...).
func NameAt(alphabet string, n int) string {
	k := len(alphabet)
	length, block := 1, k
	for n >= block {
		n -= block
		length++
		block *= k
	}
	name := make([]byte, length)
	for i := length - 1; i >= 0; i-- {
		name[i] = alphabet[n%k]
		n /= k
	}
	return string(name)
}

// NamePool hands out short names in sequence order, skipping names that
// are taken. The cursor belongs to the pool; consumption is FIFO.
type NamePool struct {
	alphabet string
	maxLen   int // 0 means unbounded
	size     int // Number of names up to maxLen, or -1
	taken    []map[string]bool
	cursor   int
}

// NewNamePool creates a pool over alphabet. maxLen bounds the name length;
// 0 makes the pool unbounded. Names present in any of the taken sets are
// never produced.
func NewNamePool(alphabet string, maxLen int, taken ...map[string]bool) *NamePool {
	p := &NamePool{alphabet: alphabet, maxLen: maxLen, taken: taken, size: -1}
	if maxLen > 0 {
		p.size = 0
		block := 1
		for l := 1; l <= maxLen; l++ {
			block *= len(alphabet)
			p.size += block
		}
	}
	return p
}

// Next returns the next free name, or false if the pool is exhausted.
func (p *NamePool) Next() (string, bool) {
	for p.size < 0 || p.cursor < p.size {
		name := NameAt(p.alphabet, p.cursor)
		p.cursor++
		if !p.isTaken(name) {
			return name, true
		}
	}
	return "", false
}

// Peek returns the name Next would return without consuming it.
func (p *NamePool) Peek() (string, bool) {
	cursor := p.cursor
	name, ok := p.Next()
	p.cursor = cursor
	return name, ok
}

// Remaining counts the names the pool can still produce. It returns -1
// for an unbounded pool.
func (p *NamePool) Remaining() int {
	if p.size < 0 {
		return -1
	}
	n := 0
	for i := p.cursor; i < p.size; i++ {
		if !p.isTaken(NameAt(p.alphabet, i)) {
			n++
		}
	}
	return n
}

// Reset rewinds the pool to its first name.
func (p *NamePool) Reset() {
	p.cursor = 0
}

func (p *NamePool) isTaken(name string) bool {
	for _, set := range p.taken {
		if set[name] {
			return true
		}
	}
	return false
}
