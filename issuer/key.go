package issuer

// Kind classifies key material.
type Kind string

const (
	// KindSymmetric is a shared secret.
	KindSymmetric Kind = "symmetric"
	// KindAsymmetric is a PEM-encoded public key or certificate.
	KindAsymmetric Kind = "asymmetric"
)

// Key is resolved key material together with its kind.
type Key struct {
	Kind     Kind
	Material []byte
}
