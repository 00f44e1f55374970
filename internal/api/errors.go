package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"boreline/internal/access"
	"boreline/internal/claim"
	"boreline/internal/failure"
	"boreline/internal/oplog"
	"boreline/internal/workitem"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error      string `json:"error"`
	Kind       string `json:"kind"`
	Field      string `json:"field,omitempty"`
	Entity     string `json:"entity,omitempty"`
	Current    string `json:"current,omitempty"`
	Expected   string `json:"expected,omitempty"`
	HolderID   string `json:"holderId,omitempty"`
	HolderName string `json:"holderName,omitempty"`
	ActorName  string `json:"actorName,omitempty"`
	Station    string `json:"station,omitempty"`
	Action     string `json:"action,omitempty"`
	WorkItemID string `json:"workItemId,omitempty"`
	EntryID    int64  `json:"entryId,omitempty"`
}

// FromError classifies err and copies the detail fields of known error types.
func FromError(err error) ErrorResponse {
	if err == nil {
		return ErrorResponse{}
	}
	resp := ErrorResponse{Error: err.Error(), Kind: string(failure.KindOf(err))}

	var (
		validation  *failure.ValidationError
		notFound    *failure.NotFoundError
		invalid     *workitem.InvalidStateError
		noActive    *workitem.NoActiveOperationError
		claimed     *claim.AlreadyClaimedError
		notOwner    *claim.NotOwnerError
		denied      *access.DeniedError
		noOpen      *oplog.NoOpenEntryError
		conflicting *oplog.ConflictingOpenEntryError
		remote      *RemoteError
	)
	switch {
	case errors.As(err, &remote):
		return remote.Response
	case errors.As(err, &validation):
		resp.Field = validation.Field
	case errors.As(err, &notFound):
		resp.Entity = notFound.Entity
	case errors.As(err, &invalid):
		resp.Current = invalid.Current
		resp.Expected = invalid.Expected
	case errors.As(err, &noActive):
		resp.WorkItemID = noActive.WorkItemID
		resp.Current = noActive.Current
	case errors.As(err, &claimed):
		resp.HolderID = claimed.HolderID
		resp.HolderName = claimed.HolderName
	case errors.As(err, &notOwner):
		resp.HolderName = notOwner.HolderName
	case errors.As(err, &denied):
		resp.ActorName = denied.ActorName
		resp.Station = denied.StationName
		resp.Action = denied.Action
	case errors.As(err, &noOpen):
		resp.WorkItemID = noOpen.WorkItemID
	case errors.As(err, &conflicting):
		resp.WorkItemID = conflicting.WorkItemID
		resp.EntryID = conflicting.EntryID
	}
	return resp
}

// HTTPStatus maps a failure kind to a response status.
func HTTPStatus(kind failure.Kind) int {
	switch kind {
	case failure.KindNotFound:
		return http.StatusNotFound
	case failure.KindValidation:
		return http.StatusBadRequest
	case failure.KindAccessDenied, failure.KindNotClaimOwner:
		return http.StatusForbidden
	case failure.KindInvalidState, failure.KindAlreadyClaimed, failure.KindNoActiveOperation, failure.KindNoOpenEntry:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RemoteError is a classified error received from the daemon.
type RemoteError struct {
	Response ErrorResponse
}

func (e *RemoteError) Error() string { return e.Response.Error }

func (e *RemoteError) FailureKind() failure.Kind {
	if e.Response.Kind == "" {
		return failure.KindInternal
	}
	return failure.Kind(e.Response.Kind)
}

// EncodeError flattens err into a JSON message so its classification
// survives transports that only carry error strings.
func EncodeError(err error) error {
	if err == nil {
		return nil
	}
	data, marshalErr := json.Marshal(FromError(err))
	if marshalErr != nil {
		return err
	}
	return errors.New(string(data))
}

// DecodeError reverses EncodeError. Messages that are not encoded error
// bodies are returned unchanged.
func DecodeError(err error) error {
	if err == nil {
		return nil
	}
	message := strings.TrimSpace(err.Error())
	if !strings.HasPrefix(message, "{") {
		return err
	}
	var resp ErrorResponse
	if json.Unmarshal([]byte(message), &resp) != nil || resp.Kind == "" {
		return err
	}
	return &RemoteError{Response: resp}
}
