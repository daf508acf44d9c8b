// Package graph provides the format-agnostic model of a frame graph: the set
// of tasks a frame submits to the scheduler, their runners, instance counts,
// parent/child nesting and dependency edges.
//
// # Why Graph Package Exists
//
// Frame graphs can be written in HCL or YAML. Both loaders translate their
// file format into the same Model, so everything downstream (validation, the
// frame driver, the CLI summary) works on one representation:
//   - **Decoupling:** the frame driver never sees HCL or YAML syntax
//   - **Validation:** structural rules are checked once, here
//   - **Extensibility:** a new file format only needs a new Loader
//
// # Rules
//
// A valid model satisfies Validate:
//  1. Every task has a non-empty name that is unique across the whole model
//  2. Every task names a runner
//  3. Instances is at least 1
//  4. DependsOn, when set, names an earlier sibling in the same scope (the
//     top level, or the same parent's children)
//
// Rule 4 makes every model acyclic by construction, which matters because the
// scheduler itself never looks for cycles.
package graph
