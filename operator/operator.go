// Package operator 把表达式编译为区间树使用的二元算子。
//
// 表达式可以引用两个 int64 变量：a（左值/叶子当前值）与 b（右值/更新值），
// 可使用 expr 的内置函数，例如 max(a, b)、min(a, b)、abs(a - b)。结果必须是整数。
package operator

import (
	"fmt"
	"sort"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/wyfcoding/rangekit/algorithm/segtree"
	"github.com/wyfcoding/rangekit/xerrors"
)

// Env 表达式求值环境。
type Env struct {
	A int64 `expr:"a"`
	B int64 `expr:"b"`
}

// Compile 编译表达式，返回可直接交给 segtree.New 的算子。
// 返回的算子在求值失败时 panic，由区间树原样抛给调用方。
func Compile(src string) (segtree.Func[int64], error) {
	program, err := compile(src)
	if err != nil {
		return nil, err
	}
	return bind(src, program), nil
}

func compile(src string) (*vm.Program, error) {
	program, err := expr.Compile(src, expr.Env(Env{}), expr.AsInt64())
	if err != nil {
		return nil, xerrors.ErrInvalidExpression.Clone().
			WithContext("expression", src).
			WithCause(err)
	}
	return program, nil
}

func bind(src string, program *vm.Program) segtree.Func[int64] {
	return func(a, b int64) int64 {
		out, err := expr.Run(program, Env{A: a, B: b})
		if err != nil {
			panic(fmt.Errorf("operator %q on (%d, %d): %w", src, a, b, err))
		}
		v, ok := out.(int64)
		if !ok {
			panic(fmt.Errorf("operator %q returned %T, want int64", src, out))
		}
		return v
	}
}

// Registry 缓存按名字注册的已编译算子，并发安全。
type Registry struct {
	mu       sync.RWMutex
	sources  map[string]string
	programs map[string]*vm.Program
}

// NewRegistry 创建空的算子注册表。
func NewRegistry() *Registry {
	return &Registry{
		sources:  make(map[string]string),
		programs: make(map[string]*vm.Program),
	}
}

// Register 编译并注册（或替换）名为 name 的算子。
func (r *Registry) Register(name, src string) error {
	program, err := compile(src)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sources[name] = src
	r.programs[name] = program
	return nil
}

// Get 返回名为 name 的算子。
func (r *Registry) Get(name string) (segtree.Func[int64], error) {
	r.mu.RLock()
	program, ok := r.programs[name]
	src := r.sources[name]
	r.mu.RUnlock()

	if !ok {
		return nil, xerrors.ErrOperatorNotFound.Clone().WithContext("name", name)
	}
	return bind(src, program), nil
}

// Names 按字典序返回已注册的算子名。
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.programs))
	for name := range r.programs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
