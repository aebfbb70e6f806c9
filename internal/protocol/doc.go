// Package protocol owns the framing wire contract.
//
// Ownership boundary:
// - frame: header codecs, framers and deframers
// - reorder: sequence-ordered delivery across connections
// - errors shared by the layers that drive them
package protocol
