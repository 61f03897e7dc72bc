package ir

import (
	"math"
	"strconv"
)

// symbolRegistry is an insertion-ordered symbol set.
type symbolRegistry struct {
	list  []*Symbol
	index map[*Symbol]int
}

func newSymbolRegistry(capacity int) *symbolRegistry {
	return &symbolRegistry{
		list:  make([]*Symbol, 0, capacity),
		index: make(map[*Symbol]int, capacity),
	}
}

// add inserts s unless present and reports whether it was inserted.
func (r *symbolRegistry) add(s *Symbol) bool {
	if _, exists := r.index[s]; exists {
		return false
	}
	r.index[s] = len(r.list)
	r.list = append(r.list, s)
	return true
}

func (r *symbolRegistry) addAll(list []*Symbol) {
	for _, s := range list {
		r.add(s)
	}
}

func (r *symbolRegistry) contains(s *Symbol) bool {
	_, ok := r.index[s]
	return ok
}

func (r *symbolRegistry) symbols() []*Symbol {
	if len(r.list) == 0 {
		return nil
	}
	return r.list
}

// Dedup removes repeated symbols, keeping first occurrences. It reuses the
// backing array of list.
func Dedup(list []*Symbol) []*Symbol {
	if len(list) < 2 {
		return list
	}
	seen := make(map[*Symbol]struct{}, len(list))
	out := list[:0]
	for _, s := range list {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// IndexOf returns the position of s in list, or -1.
func IndexOf(list []*Symbol, s *Symbol) int {
	for i, x := range list {
		if x == s {
			return i
		}
	}
	return -1
}

func appendUnique(dst, src []*Symbol) []*Symbol {
	for _, s := range src {
		if IndexOf(dst, s) < 0 {
			dst = append(dst, s)
		}
	}
	return dst
}

// ConstRegistry deduplicates constants by scalar type and value, so every
// literal 1.0 in a kernel shares one symbol.
type ConstRegistry struct {
	consts   []*Symbol
	constMap map[string]*Symbol
	keyBuf   []byte // reusable buffer for building keys
}

// NewConstRegistry creates an empty registry.
func NewConstRegistry() *ConstRegistry {
	return &ConstRegistry{
		consts:   make([]*Symbol, 0, 8),
		constMap: make(map[string]*Symbol, 8),
		keyBuf:   make([]byte, 0, 64),
	}
}

// GetOrCreate returns the constant holding values, declaring it on first use.
// NaN payloads compare by bit pattern.
func (r *ConstRegistry) GetOrCreate(scalar ScalarKind, values []float64) *Symbol {
	key := r.key(scalar, values)
	if s, exists := r.constMap[key]; exists {
		return s
	}
	s := Declare(SymbolInfo{
		Kind:   KindConst,
		Size:   len(values),
		Scalar: scalar,
		Value:  values,
	})
	r.consts = append(r.consts, s)
	r.constMap[key] = s
	return s
}

// Constants returns the registered constants in creation order.
func (r *ConstRegistry) Constants() []*Symbol {
	return r.consts
}

// Count returns the number of distinct constants.
func (r *ConstRegistry) Count() int {
	return len(r.consts)
}

func (r *ConstRegistry) key(scalar ScalarKind, values []float64) string {
	b := r.keyBuf[:0]
	b = strconv.AppendUint(b, uint64(scalar), 10)
	for _, v := range values {
		b = append(b, ':')
		b = strconv.AppendUint(b, math.Float64bits(v), 16)
	}
	r.keyBuf = b
	return string(b)
}
