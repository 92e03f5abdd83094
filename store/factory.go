package store

import "fmt"

// NewStore picks a backend: "memory" (default), "sqlite" with a file path
// or "redis" with a host:port address.
func NewStore(kind, target string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(target), nil
	case "redis":
		return NewRedisStore(target), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
