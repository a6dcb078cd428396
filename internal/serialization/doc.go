// Package serialization reads and writes the two on-disk formats used for
// detkit checkpoints.
//
// SafeTensors is the keyed weight container: a flat mapping from parameter
// name to array, interchangeable with other frameworks.
//
//	[8 bytes: header size (uint64 LE)]
//	[header: JSON {"name": {"dtype", "shape", "data_offsets"}, "__metadata__": {...}}]
//	[tensor data: raw little-endian bytes, names in sorted order]
//
// The .dkcp format is the native training snapshot: tensors plus arbitrary
// JSON training state (epoch, step, optimizer settings, session info).
//
//	[4 bytes: magic "DKCP"]
//	[4 bytes: version (uint32 LE)]
//	[4 bytes: flags (uint32 LE)]
//	[8 bytes: header size (uint64 LE)]
//	[32 bytes: SHA-256 of the data section]
//	[header: JSON]
//	[zero padding to a 64-byte boundary]
//	[tensor data]
package serialization
