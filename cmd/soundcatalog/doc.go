// Package main hosts the soundcatalog CLI.
//
// The Cobra command tree loads configuration once, wires the scanner,
// extractor, classifier, and catalog store into a pipeline run, and exposes
// maintenance commands for validating, snapshotting, summarizing, and
// exporting the catalog. Business logic lives in the internal packages;
// commands here only translate flags into options and render results.
package main
