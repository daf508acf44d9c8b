// Package app contains the core application logic. It wires the frame graph
// loaders, the runner registry, the scheduler pool and the frame driver
// together, and runs the configured number of frames, decoupled from any
// specific entrypoint like a CLI.
package app
