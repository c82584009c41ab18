package analytics

// ordered is a map that remembers the order in which keys were first seen.
type ordered[K comparable, V any] struct {
	index map[K]int
	keys  []K
	vals  []*V
}

func newOrdered[K comparable, V any]() *ordered[K, V] {
	return &ordered[K, V]{index: make(map[K]int)}
}

// get returns the accumulator for key, creating it with init on first use.
func (o *ordered[K, V]) get(key K, init func() V) *V {
	if i, ok := o.index[key]; ok {
		return o.vals[i]
	}
	v := init()
	o.index[key] = len(o.keys)
	o.keys = append(o.keys, key)
	o.vals = append(o.vals, &v)
	return &v
}

// each visits the groups in first-seen order.
func (o *ordered[K, V]) each(fn func(K, *V)) {
	for i, k := range o.keys {
		fn(k, o.vals[i])
	}
}

func (o *ordered[K, V]) len() int {
	return len(o.keys)
}
