package pipeline

import (
	"html/template"
	"sync"
)

// Region 一个输出区域。每次进入加载状态或显示校验错误时代数加一，
// 只有持有当前代数的响应才能写入，过期响应被丢弃。
type Region struct {
	mu         sync.Mutex
	content    template.HTML
	generation uint64
}

// Replace 无条件替换内容并开启新的一代
func (r *Region) Replace(content template.HTML) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	r.content = content
	return r.generation
}

// Commit 仅当 gen 仍是当前代数时写入
func (r *Region) Commit(gen uint64, content template.HTML) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.generation {
		return false
	}
	r.content = content
	return true
}

// Snapshot 返回当前内容和代数
func (r *Region) Snapshot() (template.HTML, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.content, r.generation
}

// Board 按ID索引的输出区域集合
type Board struct {
	mu      sync.Mutex
	regions map[string]*Region
}

func NewBoard() *Board {
	return &Board{regions: make(map[string]*Region)}
}

// Region 返回指定区域，不存在时创建
func (b *Board) Region(id string) *Region {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.regions[id]
	if !ok {
		r = &Region{}
		b.regions[id] = r
	}
	return r
}

// Content 当前区域内容
func (b *Board) Content(id string) template.HTML {
	content, _ := b.Region(id).Snapshot()
	return content
}
