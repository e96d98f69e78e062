// Package cache provides the thread-safe map behind the texture registry.
//
// Cache[K, V] is a mutex-guarded map with last-write-wins insertion. Set
// reports the value it displaced so the caller can dispose of it, and TakeAll
// empties the map in one critical section so nothing inserted concurrently
// is lost or released twice.
//
//	c := cache.New[string, gpucore.Texture]()
//	if old, ok := c.Set(cache.Key("ui/button.png"), tex); ok {
//		// old was displaced by a racing load
//	}
//
// # Thread Safety
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
