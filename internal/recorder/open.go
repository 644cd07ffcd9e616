package recorder

import "fmt"

const (
	KindNone   = "none"
	KindJSONL  = "jsonl"
	KindSQLite = "sqlite"
)

// Open builds the recorder named by kind.
func Open(kind, path string) (Recorder, error) {
	switch kind {
	case "", KindNone:
		return NewNoopRecorder(), nil
	case KindJSONL:
		r, err := NewJSONLRecorder(path)
		if err != nil {
			return nil, err
		}
		return r, nil
	case KindSQLite:
		r, err := NewSQLiteRecorder(path)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown recorder kind %q", kind)
	}
}
