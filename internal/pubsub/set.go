package pubsub

// stringSet 字符串集合类型
type stringSet map[string]struct{}

func (ss stringSet) Contains(elem string) bool {
	_, ok := ss[elem]
	return ok
}

func (ss stringSet) Add(elem string) {
	ss[elem] = struct{}{}
}

func (ss stringSet) Remove(elem string) {
	delete(ss, elem)
}
