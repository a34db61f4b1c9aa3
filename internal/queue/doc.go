// Package queue models a conversion queue entry and its lifecycle.
//
// An Item moves pending → loading → ready → converting → completed or failed.
// Failed items can return to ready for a retry, and a converting item reverts
// to ready when its batch is cancelled. Every transition goes through a method
// on *Item; an illegal move returns ErrInvalidTransition and leaves the item
// untouched. Progress only moves forward while converting.
//
// Items are not safe for concurrent mutation. The pipeline owns them and
// applies every change from a single goroutine.
package queue
