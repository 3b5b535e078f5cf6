package domain

// Sequence is the append-only, observation-ordered list of samples for one run.
type Sequence struct {
	samples []Sample
}

// NewSequence returns a sequence seeded with the given samples in order.
func NewSequence(samples ...Sample) *Sequence {
	seq := &Sequence{samples: make([]Sample, 0, len(samples))}
	seq.samples = append(seq.samples, samples...)
	return seq
}

// Record appends a sample. Duplicates and non-monotonic times are accepted.
func (s *Sequence) Record(sample Sample) {
	s.samples = append(s.samples, sample)
}

// Len reports the number of recorded samples.
func (s *Sequence) Len() int {
	if s == nil {
		return 0
	}
	return len(s.samples)
}

// IsEmpty reports whether nothing was recorded.
func (s *Sequence) IsEmpty() bool {
	return s.Len() == 0
}

// At returns the i-th sample.
func (s *Sequence) At(i int) Sample {
	return s.samples[i]
}

// All returns a copy of the samples in observation order.
func (s *Sequence) All() []Sample {
	if s == nil {
		return nil
	}
	out := make([]Sample, len(s.samples))
	copy(out, s.samples)
	return out
}

// Max returns the sample with the highest price. Ties go to the earliest one.
func (s *Sequence) Max() (Sample, error) {
	if s.IsEmpty() {
		return Sample{}, ErrEmptySequence
	}
	best := s.samples[0]
	for _, sample := range s.samples[1:] {
		if sample.Price.GreaterThan(best.Price) {
			best = sample
		}
	}
	return best, nil
}
