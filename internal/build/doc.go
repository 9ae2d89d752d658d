// Package build provides the site build pipeline.
//
// A Builder performs a full, clean rebuild: posts are loaded, rendered through
// the page templates into a staging directory, and the staging directory is
// then promoted to the output directory. A failed build leaves the previous
// output untouched. Builds are serialized; at most one runs at a time.
//
// State carries the time of the last successful build for the dev server.
package build
