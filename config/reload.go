package config

// ReloadBridge reloads a TOML file into a Store. The file watcher calls
// Reload on every change; callers may also trigger it directly, for example
// from a signal handler.
type ReloadBridge[T any] struct {
	store    *Store[T]
	filePath string
	defaults *T
}

// NewReloadBridge creates a bridge between the file at filePath and store.
func NewReloadBridge[T any](store *Store[T], filePath string, defaults *T) *ReloadBridge[T] {
	return &ReloadBridge[T]{
		store:    store,
		filePath: filePath,
		defaults: defaults,
	}
}

// Path returns the file the bridge reads.
func (b *ReloadBridge[T]) Path() string { return b.filePath }

// Reload reads the file and swaps the result into the store. On error the
// store keeps its current value.
func (b *ReloadBridge[T]) Reload() error {
	cfg, err := LoadTOML[T](b.filePath, b.defaults)
	if err != nil {
		return err
	}
	b.store.Swap(cfg)
	return nil
}
