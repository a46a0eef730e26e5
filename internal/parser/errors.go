package parser

import "github.com/horizonanalytic/stratum/internal/diagnostics"

const (
	CodeUnexpectedToken     diagnostics.Code = "unexpected-token"
	CodeUnexpectedEOF       diagnostics.Code = "unexpected-eof"
	CodeExpectedIdentifier  diagnostics.Code = "expected-identifier"
	CodeExpectedExpression  diagnostics.Code = "expected-expression"
	CodeExpectedType        diagnostics.Code = "expected-type"
	CodeExpectedPattern     diagnostics.Code = "expected-pattern"
	CodeExpectedAfter       diagnostics.Code = "expected-after"
	CodeInvalidNumber       diagnostics.Code = "invalid-number"
	CodeBreakOutsideLoop    diagnostics.Code = "break-outside-loop"
	CodeContinueOutsideLoop diagnostics.Code = "continue-outside-loop"
	CodeReturnOutsideFunc   diagnostics.Code = "return-outside-function"
)
