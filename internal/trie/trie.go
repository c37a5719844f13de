// Package trie 提供按字节逐层访问的可变前缀树，节点可挂载任意类型的值。
package trie

// Trie 是一个可变前缀树节点，零值即可使用。
//
// Child、Sub、Prune 会修改树结构；ChildIfExists、Find、Size 只读，
// 并发使用时前者需要写锁，后者读锁即可。
type Trie[V any] struct {
	Val      V
	children map[byte]*Trie[V]
}

// Child 返回（并在必要时创建）该节点在字节 b 上的子节点。
func (t *Trie[V]) Child(b byte) *Trie[V] {
	if t.children == nil {
		t.children = make(map[byte]*Trie[V])
	}
	if child := t.children[b]; child != nil {
		return child
	}
	child := &Trie[V]{}
	t.children[b] = child
	return child
}

// ChildIfExists 返回该节点在字节 b 上的子节点，不存在时返回 nil。
func (t *Trie[V]) ChildIfExists(b byte) *Trie[V] {
	if t == nil || t.children == nil {
		return nil
	}
	return t.children[b]
}

// Sub 沿着 s 的每个字节逐层访问并返回对应子树节点，缺失的节点懒创建。
func (t *Trie[V]) Sub(s string) *Trie[V] {
	node := t
	for i := 0; i < len(s); i++ {
		node = node.Child(s[i])
	}
	return node
}

// Find 沿着 s 的每个字节逐层访问并返回对应子树节点，路径不存在时返回 nil。
func (t *Trie[V]) Find(s string) *Trie[V] {
	node := t
	for i := 0; i < len(s) && node != nil; i++ {
		node = node.ChildIfExists(s[i])
	}
	return node
}

// Prune 从 path 的末端向上删除空分支：没有子节点且 empty(Val) 为真的节点被移除，
// 遇到第一个仍在使用的节点即停止。当前节点自身不会被删除，返回删除的节点数。
func (t *Trie[V]) Prune(path string, empty func(V) bool) int {
	if path == "" {
		return 0
	}
	child := t.ChildIfExists(path[0])
	if child == nil {
		return 0
	}
	removed := child.Prune(path[1:], empty)
	if len(child.children) == 0 && empty(child.Val) {
		delete(t.children, path[0])
		removed++
	}
	return removed
}

// Size 计算从当前节点出发（包含自身）的节点总数。
func (t *Trie[V]) Size() int {
	if t == nil {
		return 0
	}
	cnt := 1
	for _, c := range t.children {
		cnt += c.Size()
	}
	return cnt
}
