// Package upload implements the hand-off between decoding goroutines and the
// GPU goroutine.
//
// Producers call [Queue.Enqueue] from any goroutine; it never blocks and
// returns a [Future]. The GPU goroutine calls [Queue.Drain] once per frame,
// which creates and fills one texture per queued [Recipe] and fulfils the
// recipe's promise. A caller blocks only when it reads the Future.
//
// Within one recipe, upload happens-before fulfilment happens-before any
// reader observes the texture. Across recipes no order is promised.
package upload
