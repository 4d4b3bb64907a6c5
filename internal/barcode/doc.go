// Package barcode wraps the QR decoding backend used by the extraction engine.
//
// A Backend turns a raster image into zero or more Symbols. Each Symbol
// carries the raw payload bytes plus optional geometry and metadata; every
// optional field is independently present or absent so callers never have to
// guess whether a zero value was decoded or defaulted.
//
// The default backend is built on gozxing and decodes QR codes only.
package barcode
