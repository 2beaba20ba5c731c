// Package invoke exposes operations through named JSON methods.
package invoke

import (
	"bytes"
	"encoding/json"
	"slices"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/invopop/jsonschema"
)

var (
	// ErrUnknownMethod is returned when no handler is registered for a method.
	ErrUnknownMethod = errors.New("unknown method")

	// ErrInvalidInput is returned when the input does not decode.
	ErrInvalidInput = errors.New("invalid input")
)

// Handler processes one JSON method call.
type Handler interface {
	Invoke(input json.RawMessage) (json.RawMessage, error)
	InputSchema() *jsonschema.Schema
	OutputSchema() *jsonschema.Schema
}

// MethodSchema describes the input and output of a method.
type MethodSchema struct {
	Method string             `json:"method"`
	Input  *jsonschema.Schema `json:"input"`
	Output *jsonschema.Schema `json:"output"`
}

type typedHandler[In, Out any] struct {
	fn func(In) (Out, error)
}

// Typed adapts a typed function into a Handler. Input is decoded strictly:
// unknown fields are rejected. Empty input decodes as the zero In.
//
//nolint:ireturn // handlers are stored behind the interface
func Typed[In, Out any](fn func(In) (Out, error)) Handler {
	return typedHandler[In, Out]{fn: fn}
}

func (h typedHandler[In, Out]) Invoke(input json.RawMessage) (json.RawMessage, error) {
	var in In

	if len(bytes.TrimSpace(input)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(input))
		dec.DisallowUnknownFields()

		if err := dec.Decode(&in); err != nil {
			return nil, errors.Mark(errors.Wrap(err, "decode input"), ErrInvalidInput)
		}
	}

	out, err := h.fn(in)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, errors.Wrap(err, "encode output")
	}

	return data, nil
}

func (typedHandler[In, Out]) InputSchema() *jsonschema.Schema {
	return reflectSchema[In]()
}

func (typedHandler[In, Out]) OutputSchema() *jsonschema.Schema {
	return reflectSchema[Out]()
}

func reflectSchema[T any]() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
	}

	var v T

	return r.Reflect(&v)
}

// Invoker maps method names to handlers.
type Invoker struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// New creates an empty Invoker.
func New() *Invoker {
	return &Invoker{handlers: make(map[string]Handler)}
}

// Register binds method to h, replacing any previous handler.
func (i *Invoker) Register(method string, h Handler) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.handlers[method] = h
}

// Invoke calls the handler registered for method.
func (i *Invoker) Invoke(method string, input []byte) ([]byte, error) {
	h, err := i.handler(method)
	if err != nil {
		return nil, err
	}

	return h.Invoke(input)
}

// Methods returns the registered method names, sorted.
func (i *Invoker) Methods() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()

	methods := make([]string, 0, len(i.handlers))
	for m := range i.handlers {
		methods = append(methods, m)
	}

	slices.Sort(methods)

	return methods
}

// Describe returns the schemas of method.
func (i *Invoker) Describe(method string) (MethodSchema, error) {
	h, err := i.handler(method)
	if err != nil {
		return MethodSchema{}, err
	}

	return MethodSchema{
		Method: method,
		Input:  h.InputSchema(),
		Output: h.OutputSchema(),
	}, nil
}

//nolint:ireturn // handlers are stored behind the interface
func (i *Invoker) handler(method string) (Handler, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	h, ok := i.handlers[method]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownMethod, "%q", method)
	}

	return h, nil
}
