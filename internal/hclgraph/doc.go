// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package hclgraph loads frame graphs written in HCL into a graph.Model.
//
// A frame graph file is a list of `task` blocks. A task names the runner that
// executes it, how many instances run in parallel, an optional sibling it
// depends on, runner arguments, and nested `task` blocks that become its
// children:
//
//	task "shadows" {
//	  runner    = "spin"
//	  instances = 4
//	  arguments {
//	    iterations = 1000
//	  }
//
//	  task "cascade" {
//	    runner = "print"
//	  }
//	}
//
//	task "lighting" {
//	  runner     = "print"
//	  depends_on = "shadows"
//	}
//
// Why a separate loader package?
//
// The frame driver works on graph.Model only. Keeping HCL parsing here means
// all hcl.Diagnostics handling, and every `hcl:` struct tag, stays in one
// place, and the YAML loader can produce the very same model.
//
// Arguments are evaluated when the file is loaded, without variables, so they
// must be literal values. Each one is kept as a cty.Value for the runner
// registry to decode into the runner's input struct.
package hclgraph
