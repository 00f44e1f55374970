package opsaccess

import (
	"fmt"

	"boreline/internal/ipc"
	"boreline/internal/store"
	"boreline/internal/workflow"
)

// Session represents an access handle and its cleanup function.
type Session struct {
	Access Access
	close  func() error
}

// Close releases resources associated with the session.
func (s Session) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenWithFallback tries IPC-backed access first, then falls back to direct
// store access.
func OpenWithFallback(
	dial func() (*ipc.Client, error),
	openEngine func() (*store.Store, *workflow.Engine, error),
) (Session, error) {
	if dial != nil {
		if client, err := dial(); err == nil {
			return Session{
				Access: NewIPCAccess(client),
				close:  client.Close,
			}, nil
		}
	}

	if openEngine == nil {
		return Session{}, fmt.Errorf("open store: no store opener configured")
	}
	st, engine, err := openEngine()
	if err != nil {
		return Session{}, fmt.Errorf("open store: %w", err)
	}
	return Session{
		Access: NewStoreAccess(st, engine),
		close:  st.Close,
	}, nil
}
