// Package textutil provides filename helpers: sanitizing user-supplied names
// and generating random output names.
package textutil
