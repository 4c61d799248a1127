// Package config loads the triage rules: which label to apply, which folder
// to search, and the rejection phrases that make up the Gmail query.
//
// Rules are read from an optional YAML file. Any field the file leaves out
// keeps its default, so an empty or absent file reproduces the built-in
// heuristics exactly.
package config
