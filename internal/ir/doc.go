// Package ir provides the foundational types for redline.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps the location grammar,
// the action model and the error taxonomy in one dependency-free layer.
//
// Key design constraints:
//   - LocationKeys are parsed once, into Key, and never re-parsed downstream
//   - Action payloads are a closed set of Operation variants
//   - Every error surfaced to callers is an *Error carrying an ErrorCode
//   - Content hashes use SHA-256 with domain separation
package ir
