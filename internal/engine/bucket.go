package engine

import "hash/fnv"

// Bucket maps a (namespace, subjectID) pair onto a deterministic bucket in
// [0,100). The hash is FNV-1a 64 with no per-process salt, so the same pair
// lands in the same bucket across restarts and replicas. Flag rollout and
// variant assignment both ride on this: a subject's bucket for a namespace
// never moves unless the namespace string itself changes, which is what makes
// rollout increases sticky.
func Bucket(namespace, subjectID string) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(namespace))
	_, _ = h.Write([]byte{':'})
	_, _ = h.Write([]byte(subjectID))
	return int(h.Sum64() % 100)
}

// Namespaces keep flag and experiment bucketing independent: the same subject
// can be at 7 for a flag and 93 for an experiment with the same key.
func FlagNamespace(flagKey string) string      { return "flag:" + flagKey }
func ExperimentNamespace(expKey string) string { return "exp:" + expKey }
