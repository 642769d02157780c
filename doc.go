// Package persist bridges an application runtime and a durable string
// key-value store.
//
// The application hands the bridge its whole configuration state as an
// opaque value. Save serializes it (JSON, optionally base64) and overwrites
// the single record under a fixed key. Load reads that record back; a missing
// record and a record that no longer decodes are both reported as absence, the
// latter after a best-effort removal of the corrupt text.
//
// Data flow:
//
//	app --save(payload)--> Bridge.HandleSave --> codec.Encode --> Store.SetItem(key)
//	app --load-request---> Bridge.HandleLoadRequest --> Store.GetItem(key) --> codec.Decode
//	app <--load-response-- payload | nil
//
// Ports (package ports) carry these three messages; Attach subscribes a bridge
// to a ports.Set. Stores live under pkg/store, encodings under pkg/codec.
package persist
