// Package app wires peek together: it reads keys from the terminal, edits
// the line in the console, evaluates the buffer against a document and
// previews the result under the prompt.
//
// Every component runs on a single event loop. The key listener and the
// data watcher run on their own goroutines and only post work to the loop.
package app
