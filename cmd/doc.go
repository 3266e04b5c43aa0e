// Package cmd implements the command-line interface for calimport.
//
// This package provides the following commands:
//   - serve: Start the web application where users sign in with Google and import schedules
//   - import: Import a schedule CSV with an existing Google token
//   - schedules: List the bundled schedules and whether their files exist
//   - version: Display version information
//
// Every flag that has an environment variable fallback documents it in its
// usage text. An explicitly set flag wins over the environment.
package cmd
