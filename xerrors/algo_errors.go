package xerrors

var (
	// ErrEmptyInput 输入序列为空。
	ErrEmptyInput = New(ErrInvalidArg, 400001, "empty input", "sequence must contain at least one element", nil)
	// ErrInvalidRange 区间越界或左端点大于右端点。
	ErrInvalidRange = New(ErrOutOfRange, 400002, "invalid range", "require 0 <= left <= right < n", nil)
	// ErrNilOperator 未提供合并或应用算子。
	ErrNilOperator = New(ErrInvalidArg, 400003, "nil operator", "merge and apply must both be non-nil", nil)
	// ErrInvalidModulus 模数过小。
	ErrInvalidModulus = New(ErrInvalidArg, 400004, "invalid modulus", "modulus must be at least 2", nil)
	// ErrNotInvertible 不存在模逆元。
	ErrNotInvertible = New(ErrInvalidArg, 400005, "not invertible", "value shares a factor with the modulus", nil)
	// ErrNegativeExponent 指数为负。
	ErrNegativeExponent = New(ErrInvalidArg, 400006, "negative exponent", "exponent must be non-negative", nil)
	// ErrInvalidExpression 算子表达式无法编译。
	ErrInvalidExpression = New(ErrInvalidArg, 400007, "invalid expression", "expression must evaluate to an integer over a and b", nil)
	// ErrUnknownPreset 未知的算子预设。
	ErrUnknownPreset = New(ErrInvalidArg, 400008, "unknown preset", "supported presets: sum, max, min, max-add, min-add, sum-set, expr", nil)
	// ErrNegativeArgument 参数为负。
	ErrNegativeArgument = New(ErrInvalidArg, 400009, "negative argument", "argument must be non-negative", nil)
	// ErrOperatorNotFound 未注册的算子名。
	ErrOperatorNotFound = New(ErrFailedPrecondition, 412001, "operator not found", "register the operator before use", nil)
)

// InvalidRange 构造携带区间与长度上下文的越界错误。
func InvalidRange(left, right, n int) *Error {
	return ErrInvalidRange.Clone().
		WithContext("left", left).
		WithContext("right", right).
		WithContext("n", n).
		WithDetail("range [%d, %d] is not within [0, %d]", left, right, n-1)
}
