package yamnet

// StubClassifier returns scripted scores in sequence, for deterministic
// pipeline tests without a model file.
type StubClassifier struct {
	Scripted []Scores
	Err      error // returned for every call when set
	calls    int
}

// Predict returns the next scripted score set. Once the script is exhausted
// the last entry repeats; an empty script yields empty scores.
func (s *StubClassifier) Predict(samples []float32) (Scores, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.Scripted) == 0 {
		return Scores{}, nil
	}
	idx := s.calls
	if idx >= len(s.Scripted) {
		idx = len(s.Scripted) - 1
	}
	s.calls++
	return s.Scripted[idx], nil
}

// Calls reports how many times Predict has been invoked.
func (s *StubClassifier) Calls() int { return s.calls }

func (s *StubClassifier) Close() {}
