package invoke

import (
	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/calcengine/pkg/plugin"
)

// Method names registered by ForOperation.
const (
	MethodExecute = "execute"
	MethodVersion = "version"
)

// ExecuteInput is the input of the execute method.
type ExecuteInput struct {
	OperandA *float64 `json:"operandA" jsonschema:"description=Left operand"`
	OperandB *float64 `json:"operandB" jsonschema:"description=Right operand"`
}

// ExecuteOutput is the output of the execute method.
type ExecuteOutput struct {
	Result float64 `json:"result"`
}

// VersionInput is the (empty) input of the version method.
type VersionInput struct{}

// VersionOutput is the output of the version method.
type VersionOutput struct {
	Version string `json:"version"`
}

// ForOperation returns an Invoker exposing op as execute and version.
// op may be nil when only the schemas are needed.
func ForOperation(op plugin.Operation) *Invoker {
	inv := New()

	inv.Register(MethodExecute, Typed(func(in ExecuteInput) (ExecuteOutput, error) {
		if in.OperandA == nil || in.OperandB == nil {
			return ExecuteOutput{}, errors.Wrap(ErrInvalidInput, "operandA and operandB are required")
		}

		return ExecuteOutput{Result: op.Execute(*in.OperandA, *in.OperandB)}, nil
	}))

	inv.Register(MethodVersion, Typed(func(VersionInput) (VersionOutput, error) {
		return VersionOutput{Version: op.Version()}, nil
	}))

	return inv
}
