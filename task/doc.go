// Package task implements the dual-mode task wrapper at the heart of the
// engine.
//
// A Task wraps a plain function together with its declared named-parameter
// signature. Called normally it validates its arguments and runs the body.
// Called while a planning Recorder is active on the context it records a
// Node (a not-yet-executed invocation) instead, deriving dependency edges
// from any Node or actor reference appearing among the bound arguments.
//
// The split is intentional:
//   - Immutable declaration (Info): name, module, params, doc, body
//   - Recorded invocation (Node): bound args + derived dependencies
//   - Planning state (Recorder): append-only node list plus the
//     per-actor "latest mutation" pointers, discarded after planning
package task
