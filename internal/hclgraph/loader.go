// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package hclgraph

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/framesched/internal/ctxlog"
	"github.com/specialistvlad/framesched/internal/fsutil"
	"github.com/specialistvlad/framesched/internal/graph"
	"github.com/zclconf/go-cty/cty"
)

// Extension is the file suffix handled by the loader.
const Extension = ".hcl"

// taskSchema picks the nested task blocks out of a body, so the rest can be
// decoded with gohcl.
var taskSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "task", LabelNames: []string{"name"}},
	},
}

// hclTaskBody is the part of a `task` block decoded by gohcl.
type hclTaskBody struct {
	Runner    string        `hcl:"runner,optional"`
	Instances *int          `hcl:"instances,optional"`
	DependsOn *string       `hcl:"depends_on,optional"`
	Arguments *hclArguments `hcl:"arguments,block"`
}

// hclArguments captures the free-form arguments block.
type hclArguments struct {
	Body hcl.Body `hcl:",remain"`
}

// Loader implements graph.Loader for HCL files.
type Loader struct{}

// NewLoader creates an HCL frame graph loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Extensions implements graph.Loader.
func (l *Loader) Extensions() []string {
	return []string{Extension}
}

// Load finds every .hcl file under paths and parses them into one model,
// files in lexical order. Paths may be files or directories.
func (l *Loader) Load(ctx context.Context, paths ...string) (*graph.Model, error) {
	logger := ctxlog.FromContext(ctx)
	parser := hclparse.NewParser()
	model := &graph.Model{}

	for _, path := range paths {
		logger.Debug("Loading HCL frame graph from path.", "path", path)
		files, err := fsutil.FindFiles(path, Extension)
		if err != nil {
			return nil, fmt.Errorf("failed to find HCL files in %s: %w", path, err)
		}
		if len(files) == 0 {
			logger.Debug("No .hcl files found in path.", "path", path)
			continue
		}
		for _, file := range files {
			tasks, err := loadFile(parser, file)
			if err != nil {
				return nil, err
			}
			logger.Debug("Parsed HCL frame graph file.", "file", file, "tasks", len(tasks))
			model.Tasks = append(model.Tasks, tasks...)
		}
	}
	return model, nil
}

// LoadBytes parses a single in-memory HCL document. filename is used in
// diagnostics and task sources only.
func (l *Loader) LoadBytes(src []byte, filename string) (*graph.Model, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	tasks, diags := decodeTasks(hclFile.Body)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}
	return &graph.Model{Tasks: tasks}, nil
}

func loadFile(parser *hclparse.Parser, filePath string) ([]*graph.Task, error) {
	hclFile, diags := parser.ParseHCLFile(filePath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filePath, diags)
	}
	tasks, diags := decodeTasks(hclFile.Body)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filePath, diags)
	}
	return tasks, nil
}

// decodeTasks decodes a body that may only contain task blocks.
func decodeTasks(body hcl.Body) ([]*graph.Task, hcl.Diagnostics) {
	content, diags := body.Content(taskSchema)
	if diags.HasErrors() {
		return nil, diags
	}
	return decodeTaskBlocks(content.Blocks)
}

func decodeTaskBlocks(blocks hcl.Blocks) ([]*graph.Task, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	tasks := make([]*graph.Task, 0, len(blocks))
	for _, block := range blocks {
		t, taskDiags := decodeTask(block)
		diags = append(diags, taskDiags...)
		if t != nil {
			tasks = append(tasks, t)
		}
	}
	return tasks, diags
}

func decodeTask(block *hcl.Block) (*graph.Task, hcl.Diagnostics) {
	content, remain, diags := block.Body.PartialContent(taskSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	var parsed hclTaskBody
	diags = append(diags, gohcl.DecodeBody(remain, nil, &parsed)...)
	if diags.HasErrors() {
		return nil, diags
	}

	t := &graph.Task{
		Name:      block.Labels[0],
		Runner:    parsed.Runner,
		Instances: 1,
		Source:    fmt.Sprintf("%s:%d", block.DefRange.Filename, block.DefRange.Start.Line),
	}
	if parsed.Instances != nil {
		t.Instances = *parsed.Instances
	}
	if parsed.DependsOn != nil {
		t.DependsOn = *parsed.DependsOn
	}
	if parsed.Arguments != nil {
		args, argDiags := decodeArguments(parsed.Arguments.Body)
		diags = append(diags, argDiags...)
		t.Args = args
	}

	children, childDiags := decodeTaskBlocks(content.Blocks)
	diags = append(diags, childDiags...)
	t.Children = children
	return t, diags
}

// decodeArguments evaluates every attribute of an arguments block.
func decodeArguments(body hcl.Body) (map[string]cty.Value, hcl.Diagnostics) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}

	args := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		val, valDiags := attr.Expr.Value(nil)
		diags = append(diags, valDiags...)
		if valDiags.HasErrors() {
			continue
		}
		args[name] = val
	}
	return args, diags
}
