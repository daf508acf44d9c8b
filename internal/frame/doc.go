// Package frame drives a frame graph through a scheduler pool, one frame at
// a time.
//
// # How It Works
//
// New validates the model, resolves every task's runner and decodes its
// arguments once. Each call to Run then:
//  1. Creates the top-level tasks in declaration order, turning depends_on
//     names into scheduler dependencies
//  2. Lets instance 0 of every task with nested tasks create them as its
//     scheduler children before running its own handler (fork-join)
//  3. Waits for the top-level tasks, collects panics and handler errors per
//     task name, and resets the pool with WaitForAllTasks
//
// A failing task does not stop the frame: its dependents still run, as the
// scheduler has no notion of failure. Errors are reported per task name in
// the Report and joined into Run's error.
//
// Arguments are decoded once in New to report errors early, and again for
// every instance, so each handler call owns its input.
package frame
