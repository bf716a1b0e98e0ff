package math

import (
	"math/bits"

	"github.com/wyfcoding/rangekit/xerrors"
)

// DefaultModulus 竞赛与组合计数中常用的素数模数 1e9+7。
const DefaultModulus int64 = 1_000_000_007

// Modular 固定模数下的整数运算。所有结果都落在 [0, m) 内，负数输入会先被规范化。
// 乘法使用 128 位中间结果，任何 int64 模数都不会溢出。
// 零值可直接使用，模数为 DefaultModulus。
type Modular struct {
	m int64 // 0 表示 DefaultModulus
}

// NewModular 创建模数为 m 的运算器，m 必须不小于 2。
func NewModular(m int64) (*Modular, error) {
	if m < 2 {
		return nil, xerrors.ErrInvalidModulus.Clone().WithContext("modulus", m)
	}
	return &Modular{m: m}, nil
}

// DefaultModular 返回模数为 DefaultModulus 的运算器。
func DefaultModular() *Modular {
	return &Modular{m: DefaultModulus}
}

// Modulus 返回模数。
func (r *Modular) Modulus() int64 {
	return r.mod()
}

func (r *Modular) mod() int64 {
	if r.m == 0 {
		return DefaultModulus
	}
	return r.m
}

// Norm 把任意整数映射到 [0, m)。
func (r *Modular) Norm(a int64) int64 {
	a %= r.mod()
	if a < 0 {
		a += r.mod()
	}
	return a
}

// Add 返回 (a + b) mod m。
func (r *Modular) Add(a, b int64) int64 {
	return int64((uint64(r.Norm(a)) + uint64(r.Norm(b))) % uint64(r.mod()))
}

// Sub 返回 (a - b) mod m。
func (r *Modular) Sub(a, b int64) int64 {
	d := r.Norm(a) - r.Norm(b)
	if d < 0 {
		d += r.mod()
	}
	return d
}

// Mul 返回 (a * b) mod m。
func (r *Modular) Mul(a, b int64) int64 {
	hi, lo := bits.Mul64(uint64(r.Norm(a)), uint64(r.Norm(b)))
	return int64(bits.Rem64(hi, lo, uint64(r.mod())))
}

// Pow 快速幂，返回 a^e mod m。0^0 定义为 1。
func (r *Modular) Pow(a, e int64) (int64, error) {
	if e < 0 {
		return 0, xerrors.ErrNegativeExponent.Clone().WithContext("exponent", e)
	}
	result, base := int64(1), r.Norm(a)
	for e > 0 {
		if e&1 == 1 {
			result = r.Mul(result, base)
		}
		base = r.Mul(base, base)
		e >>= 1
	}
	return result, nil
}

// Inverse 用扩展欧几里得算法求 a 的模逆元，要求 gcd(a, m) = 1。
// 不要求模数为素数。
func (r *Modular) Inverse(a int64) (int64, error) {
	oldR, curR := r.Norm(a), r.mod()
	oldS, curS := int64(1), int64(0)
	for curR != 0 {
		q := oldR / curR
		oldR, curR = curR, oldR-q*curR
		oldS, curS = curS, oldS-q*curS
	}
	if oldR != 1 {
		return 0, xerrors.ErrNotInvertible.Clone().
			WithContext("value", a).
			WithContext("modulus", r.mod())
	}
	return r.Norm(oldS), nil
}

// Div 返回 a * b^-1 mod m。
func (r *Modular) Div(a, b int64) (int64, error) {
	inv, err := r.Inverse(b)
	if err != nil {
		return 0, err
	}
	return r.Mul(a, inv), nil
}

// Fact 返回 n! mod m。
func (r *Modular) Fact(n int64) (int64, error) {
	if n < 0 {
		return 0, xerrors.ErrNegativeArgument.Clone().WithContext("n", n)
	}
	ans := int64(1) % r.mod()
	for i := int64(2); i <= n; i++ {
		ans = r.Mul(ans, i)
	}
	return ans, nil
}

// Binomial 返回组合数 C(n, k) mod m，k 不在 [0, n] 内时为 0。
// 分母需要在模 m 下可逆：素数模数下要求 k < m。
func (r *Modular) Binomial(n, k int64) (int64, error) {
	if n < 0 {
		return 0, xerrors.ErrNegativeArgument.Clone().WithContext("n", n)
	}
	if k < 0 || k > n {
		return 0, nil
	}
	k = min(k, n-k)

	num, den := int64(1)%r.mod(), int64(1)%r.mod()
	for i := int64(0); i < k; i++ {
		num = r.Mul(num, n-i)
		den = r.Mul(den, i+1)
	}
	return r.Div(num, den)
}
