// Command rangeq 对整数序列执行区间聚合脚本、压测与若干数论工具。
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"google.golang.org/grpc/codes"

	"github.com/wyfcoding/rangekit/xerrors"
)

// 退出码：参数或输入不合法为 2，前置条件不满足为 3，被中断为 130，其余错误为 1。
const (
	exitOK           = 0
	exitFailure      = 1
	exitUsage        = 2
	exitPrecondition = 3
	exitInterrupted  = 130
)

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(exitCode(err))
}

// exitCode 按错误的 gRPC 状态码归类为进程退出码。
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, context.Canceled) {
		return exitInterrupted
	}

	e, ok := xerrors.FromError(err)
	if !ok {
		return exitFailure
	}
	switch e.GRPCCode() {
	case codes.InvalidArgument, codes.OutOfRange:
		return exitUsage
	case codes.FailedPrecondition:
		return exitPrecondition
	default:
		return exitFailure
	}
}
