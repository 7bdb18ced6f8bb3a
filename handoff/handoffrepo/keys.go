package handoffrepo

// Keyspace namespaces handoff keys as "<namespace>:<provider>:handoff:<id>".
type Keyspace struct {
	Namespace string
	Provider  string
}

// DefaultKeyspace is the keyspace used when none is configured.
var DefaultKeyspace = Keyspace{Namespace: "tasklight", Provider: "notion"}

func (k Keyspace) Key(handoffID string) string {
	return k.Namespace + ":" + k.Provider + ":handoff:" + handoffID
}
