package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wyfcoding/rangekit/algorithm/bsearch"
	"github.com/wyfcoding/rangekit/algorithm/math"
	"github.com/wyfcoding/rangekit/algorithm/structures"
	"github.com/wyfcoding/rangekit/xerrors"
)

func newPrimesCmd() *cobra.Command {
	var count bool
	cmd := &cobra.Command{
		Use:   "primes N",
		Short: "List the primes not greater than N",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return xerrors.InvalidArg(fmt.Sprintf("N: %v", err))
			}
			primes := math.Sieve(n)
			if count {
				fmt.Fprintln(cmd.OutOrStdout(), len(primes))
				return nil
			}
			return writeInts(cmd.OutOrStdout(), primes)
		},
	}
	cmd.Flags().BoolVar(&count, "count", false, "print only the number of primes")
	return cmd
}

func newBoundCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bound lower|upper X V...",
		Short: "Binary search X in the sorted values V",
		Long: `Prints the bound index followed by whether X occurs in V.
lower: first index whose value is >= X.
upper: first index whose value is > X.

Flags must precede lower|upper; everything after it is read as an integer,
so negative values need no "--".`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			nums, err := parseInt64s(args[1:])
			if err != nil {
				return err
			}
			x, values := nums[0], nums[1:]
			if !slices.IsSorted(values) {
				return xerrors.InvalidArg("values must be sorted in ascending order")
			}

			var (
				i     int
				found bool
			)
			switch args[0] {
			case "lower":
				i, found = bsearch.LowerBound(values, x)
			case "upper":
				i, found = bsearch.UpperBound(values, x)
			default:
				return xerrors.InvalidArg(fmt.Sprintf("unknown bound %q, want lower or upper", args[0]))
			}
			fmt.Fprintln(cmd.OutOrStdout(), i, found)
			return nil
		},
	}
	// 操作名之后的 -5 之类参数按数值处理，不再当作短选项解析。
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func newModCmd() *cobra.Command {
	var modulus int64
	cmd := &cobra.Command{
		Use:   "mod [-m modulus] add|sub|mul|div|pow|inv|fact|binom ARGS...",
		Short: "Modular arithmetic",
		Long: `Modular arithmetic over --modulus (default 1e9+7).

Flags must precede the operation; everything after it is read as an integer,
so negative operands need no "--".`,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := math.NewModular(modulus)
			if err != nil {
				return err
			}
			nums, err := parseInt64s(args[1:])
			if err != nil {
				return err
			}
			v, err := evalMod(r, args[0], nums)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}
	cmd.Flags().Int64VarP(&modulus, "modulus", "m", math.DefaultModulus, "modulus, at least 2")
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func evalMod(r *math.Modular, op string, n []int64) (int64, error) {
	arity := map[string]int{
		"add": 2, "sub": 2, "mul": 2, "div": 2, "pow": 2, "binom": 2,
		"inv": 1, "fact": 1,
	}
	want, ok := arity[op]
	if !ok {
		return 0, xerrors.InvalidArg(fmt.Sprintf("unknown operation %q", op))
	}
	if len(n) != want {
		return 0, xerrors.InvalidArg(fmt.Sprintf("%s expects %d arguments, got %d", op, want, len(n)))
	}

	switch op {
	case "add":
		return r.Add(n[0], n[1]), nil
	case "sub":
		return r.Sub(n[0], n[1]), nil
	case "mul":
		return r.Mul(n[0], n[1]), nil
	case "div":
		return r.Div(n[0], n[1])
	case "pow":
		return r.Pow(n[0], n[1])
	case "binom":
		return r.Binomial(n[0], n[1])
	case "inv":
		return r.Inverse(n[0])
	default:
		return r.Fact(n[0])
	}
}

func newCompleteCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "complete PREFIX",
		Short: "Print the words from the input that start with PREFIX, sorted and deduplicated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			trie := structures.NewTrie[struct{}]()
			sc := bufio.NewScanner(in)
			sc.Split(bufio.ScanWords)
			for sc.Scan() {
				trie.Insert(sc.Text(), struct{}{})
			}
			if err := sc.Err(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, w := range trie.KeysWithPrefix(args[0]) {
				fmt.Fprintln(out, w)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "words", "w", "", "word list file, stdin when empty")
	return cmd
}

func parseInt64s(args []string) ([]int64, error) {
	out := make([]int64, 0, len(args))
	for _, a := range args {
		v, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, xerrors.InvalidArg(fmt.Sprintf("%q is not an integer", a))
		}
		out = append(out, v)
	}
	return out, nil
}

func writeInts(w io.Writer, nums []int) error {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	_, err := fmt.Fprintln(w, strings.Join(parts, " "))
	return err
}
