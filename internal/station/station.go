package station

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"boreline/internal/failure"
)

// ID is the stable identity of a station.
type ID int64

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Station is one stage of the manufacturing pipeline.
type Station struct {
	ID             ID
	Name           string
	SequenceNumber int
	Description    string
	Active         bool
	CreatedAt      time.Time
}

// Registry is an ordered, read-only station catalog.
type Registry struct {
	stations []Station
	byID     map[ID]int
	byName   map[string]int
	byToken  map[string]int
}

var upper = cases.Upper(language.Und)

// Token returns the status token for a station name: upper-cased with runs
// of non-alphanumeric characters collapsed to a single underscore.
func Token(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range upper.String(strings.TrimSpace(name)) {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NewRegistry validates and orders the provided stations.
func NewRegistry(stations []Station) (*Registry, error) {
	ordered := make([]Station, len(stations))
	copy(ordered, stations)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SequenceNumber < ordered[j].SequenceNumber
	})

	reg := &Registry{
		stations: ordered,
		byID:     make(map[ID]int, len(ordered)),
		byName:   make(map[string]int, len(ordered)),
		byToken:  make(map[string]int, len(ordered)),
	}
	for idx, st := range ordered {
		if st.SequenceNumber < 1 {
			return nil, fmt.Errorf("station %q: sequence number must be >= 1", st.Name)
		}
		if idx > 0 && ordered[idx-1].SequenceNumber == st.SequenceNumber {
			return nil, fmt.Errorf("stations %q and %q share sequence number %d", ordered[idx-1].Name, st.Name, st.SequenceNumber)
		}
		if _, dup := reg.byID[st.ID]; dup {
			return nil, fmt.Errorf("duplicate station id %d", st.ID)
		}
		if _, dup := reg.byName[st.Name]; dup {
			return nil, fmt.Errorf("duplicate station name %q", st.Name)
		}
		token := Token(st.Name)
		if token == "" {
			return nil, fmt.Errorf("station %d: name %q has no usable characters", st.ID, st.Name)
		}
		if other, dup := reg.byToken[token]; dup {
			return nil, fmt.Errorf("stations %q and %q both encode as %s", ordered[other].Name, st.Name, token)
		}
		reg.byID[st.ID] = idx
		reg.byName[st.Name] = idx
		reg.byToken[token] = idx
	}
	return reg, nil
}

// List returns the stations ordered by sequence number.
func (r *Registry) List() []Station {
	out := make([]Station, len(r.stations))
	copy(out, r.stations)
	return out
}

// Len reports the number of stations.
func (r *Registry) Len() int {
	return len(r.stations)
}

// Get returns the station with the given id.
func (r *Registry) Get(id ID) (Station, error) {
	idx, ok := r.byID[id]
	if !ok {
		return Station{}, failure.NotFound("station", id.String())
	}
	return r.stations[idx], nil
}

// GetByName returns the station with the given name. An exact match wins;
// otherwise names are compared case-insensitively.
func (r *Registry) GetByName(name string) (Station, error) {
	if idx, ok := r.byName[name]; ok {
		return r.stations[idx], nil
	}
	for _, st := range r.stations {
		if strings.EqualFold(st.Name, strings.TrimSpace(name)) {
			return st, nil
		}
	}
	return Station{}, failure.NotFound("station", name)
}

// ByToken resolves a status token back to its station.
func (r *Registry) ByToken(token string) (Station, bool) {
	idx, ok := r.byToken[token]
	if !ok {
		return Station{}, false
	}
	return r.stations[idx], true
}

// First returns the entry station of the pipeline.
func (r *Registry) First() (Station, bool) {
	if len(r.stations) == 0 {
		return Station{}, false
	}
	return r.stations[0], true
}

// NextAfter returns the station following st. The second result is false
// when st is the last station.
func (r *Registry) NextAfter(st Station) (Station, bool) {
	idx := sort.Search(len(r.stations), func(i int) bool {
		return r.stations[i].SequenceNumber > st.SequenceNumber
	})
	if idx >= len(r.stations) {
		return Station{}, false
	}
	return r.stations[idx], true
}

// Position returns the 1-based pipeline position of the station.
func (r *Registry) Position(id ID) (int, bool) {
	idx, ok := r.byID[id]
	if !ok {
		return 0, false
	}
	return idx + 1, true
}
