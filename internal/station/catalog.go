package station

// Seed describes a station before it has been assigned an id.
type Seed struct {
	Name           string
	SequenceNumber int
	Description    string
}

// DefaultCatalog returns the standard barrel line.
func DefaultCatalog() []Seed {
	return []Seed{
		{Name: "Drilling", SequenceNumber: 1, Description: "Barrel blank drilling & registration"},
		{Name: "Reaming", SequenceNumber: 2, Description: "Precision ream bore"},
		{Name: "Rifling", SequenceNumber: 3, Description: "Button / cut / hammer-forged rifling"},
		{Name: "Heat Treat", SequenceNumber: 4, Description: "External vendor heat treatment"},
		{Name: "Lapping", SequenceNumber: 5, Description: "Hand/lap machine surface finish"},
		{Name: "Honing", SequenceNumber: 6, Description: "Optional honing and polishing"},
		{Name: "Chambering", SequenceNumber: 7, Description: "CNC lathe chambering & threading"},
		{Name: "Inspection", SequenceNumber: 8, Description: "Bore scope, air-gauging, headspace QC"},
		{Name: "Finishing", SequenceNumber: 9, Description: "Nitride, Cerakote, etc."},
		{Name: "Final QC", SequenceNumber: 10, Description: "Final QC & inventory preparation"},
	}
}
