// Package zeealloc is a small general-purpose heap allocator meant to sit on
// top of a coarse, page-granularity backing allocator — typically a
// WebAssembly memory.grow-style provider that hands out whole pages and never
// releases them. It turns that coarse source into malloc/free/realloc
// semantics for small and medium allocations.
//
// The allocator is single-threaded and not reentrant: see Config.Validation
// for the scope of runtime metadata checks, and package backing for the two
// PageProvider implementations shipped with this module.
package zeealloc
