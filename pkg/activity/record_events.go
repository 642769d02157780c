package activity

import "time"

// Verbs emitted for the persisted record.
const (
	VerbSaved   = "persistence.saved"
	VerbLoaded  = "persistence.loaded"
	VerbMissing = "persistence.missing"
	VerbReset   = "persistence.reset"
)

// ObjectTypeRecord is the object type of every record event.
const ObjectTypeRecord = "persisted_record"

// RecordEventInput describes the common fields for record lifecycle events.
type RecordEventInput struct {
	Key        string
	Encoding   string
	Bytes      int
	Reason     string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildRecordSavedEvent describes a completed save.
func BuildRecordSavedEvent(input RecordEventInput) Event {
	return buildRecordEvent(VerbSaved, input)
}

// BuildRecordLoadedEvent describes a load that found and decoded the record.
func BuildRecordLoadedEvent(input RecordEventInput) Event {
	return buildRecordEvent(VerbLoaded, input)
}

// BuildRecordMissingEvent describes a load that found nothing under the key.
func BuildRecordMissingEvent(input RecordEventInput) Event {
	return buildRecordEvent(VerbMissing, input)
}

// BuildRecordResetEvent describes a load that discarded an undecodable record.
func BuildRecordResetEvent(input RecordEventInput) Event {
	return buildRecordEvent(VerbReset, input)
}

func buildRecordEvent(verb string, input RecordEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.Encoding != "" {
		metadata = ensureMetadata(metadata)
		metadata["encoding"] = input.Encoding
	}
	if input.Bytes > 0 {
		metadata = ensureMetadata(metadata)
		metadata["bytes"] = input.Bytes
	}
	if input.Reason != "" {
		metadata = ensureMetadata(metadata)
		metadata["reason"] = input.Reason
	}
	return NormalizeEvent(Event{
		Verb:       verb,
		ObjectType: ObjectTypeRecord,
		ObjectID:   input.Key,
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	})
}

func ensureMetadata(metadata map[string]any) map[string]any {
	if metadata == nil {
		return map[string]any{}
	}
	return metadata
}
