// Package platform collects read-only facts about the host: who is running
// the program, under which ids, on which machine and operating system.
//
// Collection is split into independent steps registered per operating
// system. A step that fails is reported as a *PartialFactError and the
// others still run, so callers always get whatever could be learned. Only
// Linux has a routine; elsewhere Collect returns *UnsupportedError.
package platform
