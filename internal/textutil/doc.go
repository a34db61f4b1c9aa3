// Package textutil provides text helpers for display titles and file names.
package textutil
