package errors

// StorageError wraps a failure coming out of the persistence layer with the
// operation that hit it, so operator-facing logs can tell a timeout during a
// claim from one during a purge.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Storage tags err with the failing operation. A nil err stays nil.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
