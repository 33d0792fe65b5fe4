package sync

import "fmt"

// ErrorKind classifies a synchronization failure.
type ErrorKind int

const (
	// KindIntrospection: the named table could not be reflected.
	KindIntrospection ErrorKind = iota
	// KindConnection: a connection or transaction could not be opened.
	KindConnection
	// KindSync: a failure during row read, compare or write.
	KindSync
)

func (k ErrorKind) String() string {
	switch k {
	case KindIntrospection:
		return "introspection"
	case KindConnection:
		return "connection"
	case KindSync:
		return "sync"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// SyncError carries the failed table, the failure kind and the underlying
// store error. Failures are terminal for the invocation: the orchestrator
// returns the first SyncError without attempting the remaining tables.
type SyncError struct {
	Table string
	Kind  ErrorKind
	Err   error
}

func (e *SyncError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error on table %s: %v", e.Kind, e.Table, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

func syncErr(table string, kind ErrorKind, err error) *SyncError {
	return &SyncError{Table: table, Kind: kind, Err: err}
}
