// Package preflight provides readiness checks for the external tools and
// filesystem paths captioner depends on.
//
// These checks run in two contexts:
//   - The daemon logs RunAll results at startup so a missing encoder shows up
//     before the first job fails.
//   - The CLI "captioner status" command renders the same results as a table.
package preflight
