// Package conf implements layered configuration for startupapp.
//
// # Usage
//
// Configuration is an explicit value, built once at startup and handed to
// whoever needs it:
//
//	defaults, _ := conf.DefaultLayer()
//	files, loadErrs := conf.NewConfigSource(conf.DefaultDir()).Read()
//	cfg, notes := conf.Merge(append([]conf.ConfigMap{defaults}, files...)...)
//
// # Load Order
//
// Layers are merged from the lowest to the highest precedence:
//
//  1. Embedded defaults
//  2. Platform facts
//  3. Master files under the configuration root: supplier, organization,
//     site, user (each .json, .jsonc, .toml, .yaml or .yml)
//  4. Drop-in files: conf.d/*, in lexicographic order
//  5. The file named with --config
//  6. STARTUPAPP_* environment variables
//  7. Command-line arguments
//
// # Documents
//
// A document must be an object. Nested objects are flattened by joining keys
// with "." so {"log": {"level": 2}} becomes the entry "log.level". A file
// may list keys in a top-level "_final" array; later layers cannot change
// those entries and their attempts show up as rejected conflict notes.
//
// A file that cannot be read or parsed contributes nothing and is reported
// as a LoadError; the remaining files still load.
package conf
