// Package fieldcheck validates structured input (request bodies, query and
// header maps, or arbitrary objects) against a declarative set of per-field
// rules, collecting structured, localized, deduplicated error reports
// rather than stopping at the first problem.
//
// A Compiler walks a root type once and produces an immutable Schema of
// field accessors and ordered constraint lists; the traversal engine then
// walks runtime values against that schema, building canonical field paths
// ("user.addresses[0].zip"), honoring validation groups and fail-fast
// policy, and collecting errors. Schemas are compiled lazily and memoized
// per engine instance; an Engine and its schemas are safe for unlimited
// concurrent use.
package fieldcheck
