package checker

import "github.com/horizonanalytic/stratum/internal/diagnostics"

const (
	ErrUndefinedVariable        diagnostics.Code = "undefined-variable"
	ErrUndefinedType            diagnostics.Code = "undefined-type"
	ErrUndefinedStruct          diagnostics.Code = "undefined-struct"
	ErrUndefinedEnum            diagnostics.Code = "undefined-enum"
	ErrUndefinedInterface       diagnostics.Code = "undefined-interface"
	ErrTypeMismatch             diagnostics.Code = "type-mismatch"
	ErrReturnTypeMismatch       diagnostics.Code = "return-type-mismatch"
	ErrReturnOutsideFunction    diagnostics.Code = "return-outside-function"
	ErrWrongArgumentCount       diagnostics.Code = "wrong-argument-count"
	ErrWrongTypeArgCount        diagnostics.Code = "wrong-type-arg-count"
	ErrInvalidBinaryOp          diagnostics.Code = "invalid-binary-op"
	ErrInvalidUnaryOp           diagnostics.Code = "invalid-unary-op"
	ErrNotCallable              diagnostics.Code = "not-callable"
	ErrNotIndexable             diagnostics.Code = "not-indexable"
	ErrInvalidIndexType         diagnostics.Code = "invalid-index-type"
	ErrNoSuchField              diagnostics.Code = "no-such-field"
	ErrMissingField             diagnostics.Code = "missing-field"
	ErrExtraField               diagnostics.Code = "extra-field"
	ErrDuplicateField           diagnostics.Code = "duplicate-field"
	ErrIncompatibleBranches     diagnostics.Code = "incompatible-branches"
	ErrMissingInterfaceMethod   diagnostics.Code = "missing-interface-method"
	ErrMethodSignatureMismatch  diagnostics.Code = "method-signature-mismatch"
	ErrDuplicateImpl            diagnostics.Code = "duplicate-impl"
	ErrImplTargetNotFound       diagnostics.Code = "impl-target-not-found"
	ErrUnnecessaryNullSafe      diagnostics.Code = "unnecessary-null-safe"
	ErrAwaitOutsideAsync        diagnostics.Code = "await-outside-async"
	ErrAwaitNonFuture           diagnostics.Code = "await-non-future"
	ErrBreakOutsideLoop         diagnostics.Code = "break-outside-loop"
	ErrContinueOutsideLoop      diagnostics.Code = "continue-outside-loop"
	ErrPlaceholderOutsidePipe   diagnostics.Code = "placeholder-outside-pipeline"
)
