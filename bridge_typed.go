package persist

import "context"

// LoadInto decodes the record into target. It reports false wherever Load
// reports absence. A record that decodes but does not fit T is left in place
// and returned as an OpError.
func LoadInto[T any](ctx context.Context, b *Bridge, target *T) (bool, error) {
	if target == nil {
		return false, nil
	}
	var (
		decoded T
		typeErr error
	)
	found, err := b.load(ctx, func(raw string) (bool, error) {
		generic, err := b.codec.Decode(raw)
		if err != nil || generic == nil {
			return false, err
		}
		typeErr = b.codec.DecodeInto(raw, &decoded)
		return true, nil
	})
	if err != nil || !found {
		return false, err
	}
	if typeErr != nil {
		return false, wrapOpError(OpLoad, b.key, typeErr)
	}
	*target = decoded
	return true, nil
}
