package tools

import (
	"context"
	"encoding/json"
)

// DescriptionReader is satisfied by *board.Store; kept as a narrow
// interface so this tool doesn't import the board package directly.
type DescriptionReader interface {
	LoadDescription() (string, error)
}

// DescriptionTool implements get_description: read description.md.
type DescriptionTool struct {
	Store DescriptionReader
}

// NewDescriptionTool returns the get_description built-in.
func NewDescriptionTool(store DescriptionReader) *DescriptionTool {
	return &DescriptionTool{Store: store}
}

func (t *DescriptionTool) Name() string           { return "get_description" }
func (t *DescriptionTool) Description() string    { return "Read the project's description.md." }
func (t *DescriptionTool) Parameters() json.RawMessage { return nil }

func (t *DescriptionTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	return t.Store.LoadDescription()
}
