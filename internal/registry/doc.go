// Package registry provides the central "glue" for the module system.
//
// The Registry maps the runner names used in frame graph files (e.g. "print")
// to the compiled Go handlers that implement them. A handler optionally
// declares an input struct with `cty` field tags; the registry decodes a
// task's arguments into that struct before the frame starts, so a typo in a
// graph file fails at startup instead of inside a worker.
//
// Fields of the input struct that are pointers are optional. All other
// fields are required. Arguments with no matching field are rejected.
package registry
