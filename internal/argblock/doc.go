// Package argblock holds the ordered list of parameter declarations that a
// pass declares in one of its READ, WRITE, READ_WRITE or INPUT lists.
//
// In memory a Block is a plain slice of strings. The compact form, a single
// buffer laid out as "decl1\x00decl2\x00" plus an explicit count, only exists
// at the serialization boundary (see Pack, Unpack and the msgpack encoding
// used by the pass manifest).
package argblock
