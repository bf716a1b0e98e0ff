package structures

import (
	"slices"
	"sync"
)

// TrieNode 结构体代表字典树中的一个节点。
type TrieNode[V any] struct {
	children map[rune]*TrieNode[V]
	value    V
	isEnd    bool
}

// reset 重置节点以便复用。
func (n *TrieNode[V]) reset() {
	clear(n.children)
	n.isEnd = false
	var zero V
	n.value = zero
}

// Trie 结构体实现了字典树（前缀树）数据结构，按 rune 分叉，支持精确匹配与前缀匹配。
// 空字符串是合法的键。
type Trie[V any] struct {
	root *TrieNode[V]
	pool sync.Pool // 删除时回收节点。
	size int
	mu   sync.RWMutex
}

// NewTrie 创建并返回一个新的 Trie 实例。
func NewTrie[V any]() *Trie[V] {
	t := &Trie[V]{}
	t.pool.New = func() any {
		return &TrieNode[V]{children: make(map[rune]*TrieNode[V])}
	}
	t.root = t.newNode()
	return t
}

func (t *Trie[V]) newNode() *TrieNode[V] {
	return t.pool.Get().(*TrieNode[V])
}

// Insert 将一个单词及其关联的值插入到字典树中，已存在时覆盖值。
func (t *Trie[V]) Insert(word string, value V) {
	t.mu.Lock()
	defer t.mu.Unlock()

	node := t.root
	for _, ch := range word {
		child := node.children[ch]
		if child == nil {
			child = t.newNode()
			node.children[ch] = child
		}
		node = child
	}
	if !node.isEnd {
		t.size++
	}
	node.isEnd = true
	node.value = value
}

// find 沿路径下降，路径中断时返回 nil。调用方需持有锁。
func (t *Trie[V]) find(s string) *TrieNode[V] {
	node := t.root
	for _, ch := range s {
		node = node.children[ch]
		if node == nil {
			return nil
		}
	}
	return node
}

// Search 精确搜索字典树中是否存在指定的单词，并返回其关联的值。
func (t *Trie[V]) Search(word string) (V, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	node := t.find(word)
	if node == nil || !node.isEnd {
		var zero V
		return zero, false
	}
	return node.value, true
}

// Contains 判断单词是否存在。
func (t *Trie[V]) Contains(word string) bool {
	_, ok := t.Search(word)
	return ok
}

// StartsWith 判断是否存在以 prefix 开头的单词。
func (t *Trie[V]) StartsWith(prefix string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	node := t.find(prefix)
	return node != nil && (node.isEnd || len(node.children) > 0)
}

// KeysWithPrefix 按字典序返回所有以 prefix 开头的单词。
func (t *Trie[V]) KeysWithPrefix(prefix string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	node := t.find(prefix)
	if node == nil {
		return nil
	}

	var keys []string
	t.dfs(node, []rune(prefix), &keys)
	slices.Sort(keys)
	return keys
}

// dfs (深度优先搜索) 辅助函数。
func (t *Trie[V]) dfs(node *TrieNode[V], path []rune, keys *[]string) {
	if node.isEnd {
		*keys = append(*keys, string(path))
	}
	for ch, child := range node.children {
		t.dfs(child, append(path, ch), keys)
	}
}

// Remove 从字典树中移除一个单词，并回收不再被任何单词使用的节点。
func (t *Trie[V]) Remove(word string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed, _ := t.remove(t.root, []rune(word), 0)
	if removed {
		t.size--
	}
	return removed
}

// remove 递归删除，返回单词是否存在以及当前节点是否可以被父节点回收。
func (t *Trie[V]) remove(node *TrieNode[V], word []rune, depth int) (removed, prune bool) {
	if depth == len(word) {
		if !node.isEnd {
			return false, false // 单词不存在。
		}
		node.isEnd = false
		var zero V
		node.value = zero
		return true, len(node.children) == 0
	}

	ch := word[depth]
	child, ok := node.children[ch]
	if !ok {
		return false, false // 路径中断，单词不存在。
	}

	removed, prune = t.remove(child, word, depth+1)
	if prune {
		delete(node.children, ch)
		child.reset()
		t.pool.Put(child)
	}
	return removed, removed && !node.isEnd && len(node.children) == 0
}

// Len 返回单词数量。
func (t *Trie[V]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.size
}
