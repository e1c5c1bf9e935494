package crypto

import (
	"crypto"
	"errors"
)

var (
	ErrVerificationFailed = errors.New("verification failed")
	ErrInvalidKey         = errors.New("invalid key")
)

type (
	// Signer component for digitally signing data.
	Signer interface {
		// SignBytes hashes the data and signs the hash with the private key specified by the Signer.
		SignBytes(data []byte) ([]byte, error)
		// SignHash signs the hash with the private key specified by the Signer.
		SignHash(hash []byte) ([]byte, error)
		// MarshalPrivateKey returns the private key bytes so these could be unmarshalled later to create the Signer.
		MarshalPrivateKey() ([]byte, error)
		// Verifier returns a verifier that verifies using the public key part.
		Verifier() (Verifier, error)
	}

	// Verifier component for verifying signatures.
	Verifier interface {
		// VerifyBytes hashes the data and verifies the signature against the hash, using the internal public key.
		VerifyBytes(sig []byte, data []byte) error
		// VerifyHash verifies the signature against the hash, using the internal public key.
		VerifyHash(sig []byte, hash []byte) error
		// MarshalPublicKey marshal verifier public key to bytes.
		MarshalPublicKey() ([]byte, error)
		// UnmarshalPubKey unmarshal verifier public key to crypto.PublicKey
		UnmarshalPubKey() (crypto.PublicKey, error)
	}
)
