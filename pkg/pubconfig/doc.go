// SPDX-License-Identifier: MPL-2.0

// Package pubconfig is a read-only, strongly-keyed view over the pubpublica
// configuration document (pubpublica.json).
//
// The document is nested one level: named sections (BUILD, PROVISION, DEPLOY,
// PUBPUBLICA, FLASK, REDIS) each map setting names to a string, an integer, or
// an ordered list of strings. Documents may be written as JSON (the canonical
// form the deployment tooling reads), CUE, or TOML; all three are checked
// against the embedded document_schema.cue before use.
//
// A Document is immutable once loaded. Consumers ask for exactly the keys they
// need: an absent section or key is reported as ConfigurationKeyMissingError,
// never replaced by a default. Paths stored in the document are not checked
// for existence here; that belongs to whoever uses them.
//
// Section and key order is preserved, so a canonical JSON document survives
// Load followed by Marshal(FormatJSON) byte-for-byte.
package pubconfig
