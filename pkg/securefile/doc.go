// Package securefile guards binary files attached to content records and
// serves them only to authorized callers, independent of where the bytes
// live and whether they are encrypted at rest.
//
// The Gateway orchestrates each request: the AccessResolver decides
// grant/deny from the record's permission policy (with single-hop container
// inheritance, ownership-aware role selection and a superuser bypass), a
// StorageProvider fetches or persists the bytes (filesystem or remote blob
// storage under subpackages of storage/), and an optional Codec transparently
// encrypts and decrypts payloads. The SignedURLIssuer produces time-boxed
// direct links for remote-backed fields, bypassing the gateway for the
// validity window.
//
// The host content manager stays behind small interfaces (ContentStore,
// ViewPermissionChecker, Tokenizer); this package carries no persistence of
// its own.
package securefile
