// Package data loads the document that console input is evaluated
// against.
//
// Documents are read from JSON, YAML or TOML files and always handed out
// as JSON. Sample builds a synthetic file system tree for trying the
// console without a file, and Watch reloads a file when it changes.
package data
