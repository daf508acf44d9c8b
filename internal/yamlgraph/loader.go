// Package yamlgraph loads frame graphs written in YAML into a graph.Model.
//
// The document mirrors the HCL format:
//
//	tasks:
//	  - name: shadows
//	    runner: spin
//	    instances: 4
//	    arguments:
//	      iterations: 1000
//	    tasks:
//	      - name: cascade
//	        runner: print
//	  - name: lighting
//	    runner: print
//	    depends_on: shadows
//
// Unknown fields are rejected. Argument values are converted to cty values so
// runners decode them the same way regardless of the file format.
package yamlgraph

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/specialistvlad/framesched/internal/ctxlog"
	"github.com/specialistvlad/framesched/internal/fsutil"
	"github.com/specialistvlad/framesched/internal/graph"
	"gopkg.in/yaml.v3"
)

var knownTaskFields = map[string]bool{
	"name":       true,
	"runner":     true,
	"instances":  true,
	"depends_on": true,
	"arguments":  true,
	"tasks":      true,
}

type yamlFile struct {
	Tasks []yamlTask `yaml:"tasks"`
}

type yamlTask struct {
	Name      string         `yaml:"name"`
	Runner    string         `yaml:"runner"`
	Instances *int           `yaml:"instances"`
	DependsOn string         `yaml:"depends_on"`
	Arguments map[string]any `yaml:"arguments"`
	Tasks     []yamlTask     `yaml:"tasks"`

	line int
}

// UnmarshalYAML rejects unknown fields and remembers the task's line.
func (t *yamlTask) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: task must be a mapping", value.Line)
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i]
		if !knownTaskFields[key.Value] {
			return fmt.Errorf("line %d: field %s not found in task", key.Line, key.Value)
		}
	}

	type plain yamlTask
	if err := value.Decode((*plain)(t)); err != nil {
		return err
	}
	t.line = value.Line
	return nil
}

// Loader implements graph.Loader for YAML files.
type Loader struct{}

// NewLoader creates a YAML frame graph loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Extensions implements graph.Loader.
func (l *Loader) Extensions() []string {
	return []string{".yaml", ".yml"}
}

// Load finds every YAML file under paths and decodes them into one model,
// files in lexical order.
func (l *Loader) Load(ctx context.Context, paths ...string) (*graph.Model, error) {
	logger := ctxlog.FromContext(ctx)
	model := &graph.Model{}

	for _, path := range paths {
		logger.Debug("Loading YAML frame graph from path.", "path", path)
		files, err := fsutil.FindFiles(path, l.Extensions()...)
		if err != nil {
			return nil, fmt.Errorf("failed to find YAML files in %s: %w", path, err)
		}
		for _, file := range files {
			content, err := os.ReadFile(file)
			if err != nil {
				return nil, fmt.Errorf("failed to read YAML file %s: %w", file, err)
			}
			m, err := l.LoadBytes(content, file)
			if err != nil {
				return nil, err
			}
			logger.Debug("Parsed YAML frame graph file.", "file", file, "tasks", len(m.Tasks))
			model.Tasks = append(model.Tasks, m.Tasks...)
		}
	}
	return model, nil
}

// LoadBytes decodes a single YAML document. An empty document yields an
// empty model.
func (l *Loader) LoadBytes(src []byte, filename string) (*graph.Model, error) {
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)

	var file yamlFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return &graph.Model{}, nil
		}
		return nil, fmt.Errorf("failed to decode YAML file %s: %w", filename, err)
	}

	tasks, err := convertTasks(file.Tasks, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to decode YAML file %s: %w", filename, err)
	}
	return &graph.Model{Tasks: tasks}, nil
}

func convertTasks(in []yamlTask, filename string) ([]*graph.Task, error) {
	tasks := make([]*graph.Task, 0, len(in))
	for _, yt := range in {
		t := &graph.Task{
			Name:      yt.Name,
			Runner:    yt.Runner,
			Instances: 1,
			DependsOn: yt.DependsOn,
			Source:    fmt.Sprintf("%s:%d", filename, yt.line),
		}
		if yt.Instances != nil {
			t.Instances = *yt.Instances
		}
		if yt.Arguments != nil {
			args, err := toCtyMap(yt.Arguments)
			if err != nil {
				return nil, fmt.Errorf("task %q arguments: %w", yt.Name, err)
			}
			t.Args = args
		}

		children, err := convertTasks(yt.Tasks, filename)
		if err != nil {
			return nil, err
		}
		t.Children = children
		tasks = append(tasks, t)
	}
	return tasks, nil
}
