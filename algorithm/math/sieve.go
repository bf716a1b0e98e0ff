package math

// Sieve 用埃拉托斯特尼筛法按升序返回不超过 upper 的全部素数。
// 时间复杂度 O(n log log n)，空间 O(n)。upper < 2 时返回空切片。
func Sieve(upper int) []int {
	if upper < 2 {
		return []int{}
	}

	composite := make([]bool, upper+1)
	primes := make([]int, 0, primeCountHint(upper))
	for p := 2; p <= upper; p++ {
		if composite[p] {
			continue
		}
		primes = append(primes, p)
		for m := p * p; m <= upper; m += p {
			composite[m] = true
		}
	}
	return primes
}

// primeCountHint 粗略估计素数个数，仅用于预分配。
func primeCountHint(n int) int {
	if n < 100 {
		return 25
	}
	return n / 5
}
