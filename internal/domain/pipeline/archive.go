package pipeline

// ArchivePair is one raw object and its archive destination.
type ArchivePair struct {
	Source      string
	Destination string
}

// NewArchivePlan maps the raw object keys consumed by a run to their archive
// destinations under the run's timestamp segment. The plan is computed once,
// up front; executing it checks each destination before copying so that a
// rerun after a partial archive skips the pairs that already completed.
func NewArchivePlan(timestamp string, rawKeys []string) []ArchivePair {
	pairs := make([]ArchivePair, 0, len(rawKeys))
	for _, key := range rawKeys {
		pairs = append(pairs, ArchivePair{
			Source:      key,
			Destination: ArchiveKey(timestamp, key),
		})
	}
	return pairs
}
