// Package backend is the registry of GPU devices texstream can run on.
//
// Backend packages register a factory from init(); importing them for side
// effects makes the backend available by name:
//
//	import (
//		_ "github.com/gogpu/texstream/backend/headless"
//		_ "github.com/gogpu/texstream/backend/native"
//	)
//
//	dev, err := backend.Open(backend.BackendNoop)
//	if err != nil {
//		return err
//	}
//	defer dev.Close()
//	sys := texstream.New(dev)
//
// Hosts that already own a GPU device construct backend/native directly with
// native.New or native.NewFromProvider instead.
package backend
