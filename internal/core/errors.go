package core

import (
	"errors"

	"github.com/illarion/vaultfs/internal/crypto"
	"github.com/illarion/vaultfs/internal/storage"
)

var (
	ErrMediumUnavailable = errors.New("external medium unavailable")
	ErrStoreUnavailable  = storage.ErrStoreUnavailable
	ErrAuthentication    = crypto.ErrAuthFailed
	ErrHardwareMismatch  = errors.New("container is bound to a different machine")
	ErrNotFound          = errors.New("file not found")
	ErrCapacityExceeded  = errors.New("maximum file count reached")
	ErrPasswordRequired  = errors.New("password required")
	ErrSourceNotFound    = errors.New("source file not found")
	ErrWriteFailure      = errors.New("write failed")
	ErrReadFailure       = errors.New("container read failed")
	ErrNotInitialized    = errors.New("container not initialized")
	ErrAlreadyExists     = errors.New("container already exists")
	ErrCorruptHeader     = errors.New("corrupt container header")
)
