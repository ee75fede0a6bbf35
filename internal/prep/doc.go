// Package prep holds the small data-preparation passes that run before
// annotation: mask coverage reporting, sequential renaming and fixed-size
// resizing. Each pass walks one directory in name order and writes into
// another.
package prep
