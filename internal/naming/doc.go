// Package naming allocates destination filenames of the form
// "<date> <supplier>[ <n>]<ext>" inside the output directory.
package naming
