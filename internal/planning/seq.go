package planning

// Seq numbers outgoing loads so that a late answer to an older request can
// be recognised and dropped. It is owned by the Update loop and needs no lock.
type Seq struct {
	latest uint64
}

// Next issues the number for a new request.
func (s *Seq) Next() uint64 {
	s.latest++
	return s.latest
}

// Current reports whether n belongs to the latest issued request.
func (s *Seq) Current(n uint64) bool {
	return n == s.latest
}
