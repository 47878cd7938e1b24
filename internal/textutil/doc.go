// Package textutil sanitizes user-supplied names before they become file
// names or download headers.
package textutil
