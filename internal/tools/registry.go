// Package tools implements Taskter's tool registry and built-in tools: the
// shell, Python, file, email, web-search and self-reflective CLI tools
// agents and the MCP server can invoke in-process.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Tool parameter limits, mirrored against a dispatcher holding thousands
// of externally-merged declarations without unbounded memory growth.
const (
	MaxToolNameLength = 256
	MaxArgsSize       = 10 << 20 // 10MB
)

// DefaultTimeout bounds every tool invocation made through Dispatch;
// a tool cannot declare a timeout of its own.
const DefaultTimeout = 60 * time.Second

// Tool is a named, schema-described action a registry can dispatch.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON-Schema-shaped parameter spec, or nil if
	// the tool takes no arguments.
	Parameters() json.RawMessage
	// Invoke runs the tool. Dispatch reports a non-nil error, or a panic,
	// as a ToolError result; the registry never panics a caller out of
	// Dispatch.
	Invoke(ctx context.Context, args json.RawMessage) (string, error)
}

// ToolError is returned by Invoke (and reported via Dispatch) when a tool
// ran but failed — a non-zero shell exit, an HTTP error, a missing
// configuration file. It is recoverable within the agent loop: the caller
// feeds it back to the model as a tool result rather than aborting.
type ToolError struct {
	Tool string
	Err  error
}

func (e *ToolError) Error() string { return fmt.Sprintf("%s: %v", e.Tool, e.Err) }
func (e *ToolError) Unwrap() error { return e.Err }

// UnknownToolError is returned by Dispatch when no tool is registered
// under the requested name.
type UnknownToolError struct{ Name string }

func (e *UnknownToolError) Error() string { return fmt.Sprintf("unknown tool: %s", e.Name) }

// InvalidArgumentError is returned by Dispatch when args fail the tool's
// declared schema.
type InvalidArgumentError struct {
	Tool   string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, e.Reason)
}

// Result is the dispatcher's uniform envelope, ready for a provider
// adapter to re-serialize into its own tool-result wire shape.
type Result struct {
	OK     bool   `json:"ok"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Registry is a thread-safe, name-keyed collection of tools.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	schemas map[string]*jsonschema.Schema
}

// NewRegistry returns an empty registry ready for built-in and external
// tool registration.
func NewRegistry() *Registry {
	return &Registry{
		tools:   make(map[string]Tool),
		schemas: make(map[string]*jsonschema.Schema),
	}
}

// Register adds a tool under its own name, compiling its declared schema
// ahead of time so Dispatch never pays compile cost mid-call. A tool
// whose schema fails to compile is still registered, without schema
// validation: Dispatch then relies on the tool's own argument decoding
// at Invoke time.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
	delete(r.schemas, t.Name())
	if raw := t.Parameters(); len(raw) > 0 {
		if compiled, err := compileSchema(raw); err == nil {
			r.schemas[t.Name()] = compiled
		}
	}
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns every registered tool's declaration surface, in the same
// set `tools/list` over MCP must return.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	return out
}

func compileSchema(raw json.RawMessage) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	const resource = "taskter://tool-params.json"
	if err := compiler.AddResource(resource, bytesReader(raw)); err != nil {
		return nil, err
	}
	return compiler.Compile(resource)
}

// Dispatch looks up name, validates args against its declared schema, and
// invokes it with a bounded wall-clock timeout. It never returns a Go
// error for a tool-level failure — those are folded into Result so the
// agent loop can feed them back to the model.
func (r *Registry) Dispatch(ctx context.Context, name string, args json.RawMessage) (res Result) {
	if len(name) > MaxToolNameLength {
		return Result{Error: fmt.Sprintf("tool name exceeds maximum length of %d characters", MaxToolNameLength)}
	}
	if len(args) > MaxArgsSize {
		return Result{Error: fmt.Sprintf("tool arguments exceed maximum size of %d bytes", MaxArgsSize)}
	}

	r.mu.RLock()
	t, ok := r.tools[name]
	schema := r.schemas[name]
	r.mu.RUnlock()
	if !ok {
		return Result{Error: (&UnknownToolError{Name: name}).Error()}
	}

	if schema != nil {
		if err := validateAgainstSchema(schema, args); err != nil {
			return Result{Error: (&InvalidArgumentError{Tool: name, Reason: err.Error()}).Error()}
		}
	}

	timeout := DefaultTimeout
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			res = Result{Error: (&ToolError{Tool: name, Err: fmt.Errorf("panic: %v", p)}).Error()}
		}
	}()
	output, err := t.Invoke(ctx, args)
	if err != nil {
		return Result{Error: (&ToolError{Tool: name, Err: err}).Error()}
	}
	return Result{OK: true, Output: output}
}

func validateAgainstSchema(schema *jsonschema.Schema, args json.RawMessage) error {
	if len(args) == 0 {
		args = []byte("{}")
	}
	var v any
	if err := json.Unmarshal(args, &v); err != nil {
		return fmt.Errorf("arguments are not valid JSON: %w", err)
	}
	return schema.Validate(v)
}
