// Package cache provides a frame-epoch LRU cache.
//
// Entries remember the epoch they were last used in. Advancing the epoch
// once per frame and evicting entries older than a retention window
// keeps resources alive while they are on screen and releases them a few
// frames after they disappear.
//
//	c := cache.NewEpoch[glyphKey, slot](4)
//	c.Set(k, s)
//	c.Advance() // next frame
//	evicted := c.Evict()
package cache
