package workitem

import (
	"fmt"
	"strings"

	"boreline/internal/failure"
	"boreline/internal/station"
)

// Kind distinguishes the variants of Status.
type Kind string

const (
	KindStation     Kind = "station"
	KindReadyToShip Kind = "ready_to_ship"
	KindHold        Kind = "hold"
	KindRework      Kind = "rework"
	KindScrap       Kind = "scrap"
)

// Phase is the step within a station visit.
type Phase string

const (
	PhasePending    Phase = "pending"
	PhaseInProgress Phase = "in_progress"
)

// Status is where a work item sits in the pipeline. Station variants carry
// the station id and phase. Quarantine variants remember the station the
// item was pulled from.
type Status struct {
	Kind      Kind
	StationID station.ID
	Phase     Phase
}

// Pending is the status of an item waiting at a station.
func Pending(id station.ID) Status {
	return Status{Kind: KindStation, StationID: id, Phase: PhasePending}
}

// InProgress is the status of an item being worked at a station.
func InProgress(id station.ID) Status {
	return Status{Kind: KindStation, StationID: id, Phase: PhaseInProgress}
}

// ReadyToShip is the terminal status.
func ReadyToShip() Status {
	return Status{Kind: KindReadyToShip}
}

// Quarantined builds a hold, rework or scrap status.
func Quarantined(kind Kind, from station.ID) (Status, error) {
	if !IsQuarantineKind(kind) {
		return Status{}, failure.Invalid("kind", fmt.Sprintf("unsupported quarantine kind %q", kind))
	}
	return Status{Kind: kind, StationID: from}, nil
}

// IsQuarantineKind reports whether kind is hold, rework or scrap.
func IsQuarantineKind(kind Kind) bool {
	switch kind {
	case KindHold, KindRework, KindScrap:
		return true
	default:
		return false
	}
}

// ParseQuarantineKind accepts "hold", "rework" or "scrap" in any case.
func ParseQuarantineKind(value string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(value)))
	if !IsQuarantineKind(kind) {
		return "", failure.Invalid("kind", fmt.Sprintf("unsupported quarantine kind %q", value))
	}
	return kind, nil
}

func (s Status) IsPending() bool {
	return s.Kind == KindStation && s.Phase == PhasePending
}

func (s Status) IsInProgress() bool {
	return s.Kind == KindStation && s.Phase == PhaseInProgress
}

func (s Status) IsTerminal() bool {
	return s.Kind == KindReadyToShip
}

func (s Status) IsQuarantined() bool {
	return IsQuarantineKind(s.Kind)
}

// IsAbsorbing reports whether no pipeline transition leaves this status.
func (s Status) IsAbsorbing() bool {
	return s.IsTerminal() || s.IsQuarantined()
}

// AtStation reports whether the item is pending or in progress at id.
func (s Status) AtStation(id station.ID) bool {
	return s.Kind == KindStation && s.StationID == id
}

// Encode renders the status for display and transport, resolving the
// station token through the registry.
func (s Status) Encode(reg *station.Registry) (string, error) {
	switch s.Kind {
	case KindReadyToShip:
		return "READY_TO_SHIP", nil
	case KindHold, KindRework, KindScrap:
		return strings.ToUpper(string(s.Kind)), nil
	case KindStation:
		st, err := reg.Get(s.StationID)
		if err != nil {
			return "", err
		}
		token := station.Token(st.Name)
		switch s.Phase {
		case PhasePending:
			return token + "_PENDING", nil
		case PhaseInProgress:
			return token + "_IN_PROGRESS", nil
		default:
			return "", fmt.Errorf("unknown phase %q", s.Phase)
		}
	default:
		return "", fmt.Errorf("unknown status kind %q", s.Kind)
	}
}

// Label encodes the status, falling back to a raw description when the
// station is not in the registry.
func (s Status) Label(reg *station.Registry) string {
	if reg != nil {
		if encoded, err := s.Encode(reg); err == nil {
			return encoded
		}
	}
	if s.Kind == KindStation {
		return fmt.Sprintf("STATION_%d_%s", s.StationID, strings.ToUpper(string(s.Phase)))
	}
	return strings.ToUpper(string(s.Kind))
}

// ParseStatus decodes an encoded status against the registry.
func ParseStatus(value string, reg *station.Registry) (Status, error) {
	encoded := strings.ToUpper(strings.TrimSpace(value))
	switch encoded {
	case "READY_TO_SHIP", "COMPLETED":
		return ReadyToShip(), nil
	case "HOLD":
		return Status{Kind: KindHold}, nil
	case "REWORK":
		return Status{Kind: KindRework}, nil
	case "SCRAP":
		return Status{Kind: KindScrap}, nil
	}
	for suffix, phase := range map[string]Phase{"_IN_PROGRESS": PhaseInProgress, "_PENDING": PhasePending} {
		token, ok := strings.CutSuffix(encoded, suffix)
		if !ok {
			continue
		}
		if st, found := reg.ByToken(token); found {
			return Status{Kind: KindStation, StationID: st.ID, Phase: phase}, nil
		}
	}
	return Status{}, failure.Invalid("status", fmt.Sprintf("unknown status %q", value))
}
