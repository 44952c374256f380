// Package objectstore keeps classified objects in a DynamoDB table and serves
// as the external object store of a [hierarchy.Registry].
//
// Each object is one item keyed by id. Its class tag lives in a configurable
// attribute next to a sharded partition key that feeds a global secondary
// index, so the objects of a class can be listed without a scan.
//
// # Table Layout
//
//	id          S   partition key
//	kind        S   curve, surface, point, mesh, brep, annotation or other
//	description S
//	class_tag   S   class id, absent when untagged
//	tag_pk      S   class#<id>#NN, GSI partition key
//	ttl         N   soft delete; an expired ttl means the object is gone
//
// The index must project ttl so tag queries can skip deleted objects.
//
// # Configuration
//
// Use [DefaultConfig] for small datasets (NumShards=1, single queries).
// Increase NumShards when a single class receives many tag writes:
//
//	cfg := objectstore.DefaultConfig()
//	cfg.NumShards = 16
//
// # Errors
//
//   - [ErrObjectNotFound] - the object doesn't exist or is deleted
//   - [ErrObjectExists] - an object with the id already exists
package objectstore
