// Package inmemorystore provides a thread-safe, in-memory record of what
// happened to each task of a frame: its status, its first error and how many
// of its instances ran. It is suitable for a single process, where frame
// outcomes do not need to outlive the run.
package inmemorystore
