package crypto

import (
	"crypto"
	"crypto/sha256"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

const (
	// PrivateKeySecp256K1Size is the size of the private key in bytes
	PrivateKeySecp256K1Size = 32
	// CompressedSecp256K1PublicKeySize is size of public key in compressed format
	CompressedSecp256K1PublicKeySize = 33
	// SignatureSecp256K1Size is the size of recoverable signature ([R || S || V]) in bytes
	SignatureSecp256K1Size = 65
)

type (
	// InMemorySecp256K1Signer keeps the private key in memory.
	InMemorySecp256K1Signer struct {
		privKey []byte
	}

	verifierSecp256k1 struct {
		pubKey []byte
	}
)

// NewInMemorySecp256K1Signer generates new key and creates a new InMemorySecp256K1Signer.
func NewInMemorySecp256K1Signer() (*InMemorySecp256K1Signer, error) {
	privKey, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generating secp256k1 key: %w", err)
	}
	return &InMemorySecp256K1Signer{privKey: ethcrypto.FromECDSA(privKey)}, nil
}

// NewInMemorySecp256K1SignerFromKey creates signer from an existing private key.
func NewInMemorySecp256K1SignerFromKey(privKey []byte) (*InMemorySecp256K1Signer, error) {
	if len(privKey) != PrivateKeySecp256K1Size {
		return nil, fmt.Errorf("%w: private key must be %d bytes, got %d", ErrInvalidKey, PrivateKeySecp256K1Size, len(privKey))
	}
	if _, err := ethcrypto.ToECDSA(privKey); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return &InMemorySecp256K1Signer{privKey: privKey}, nil
}

func (s *InMemorySecp256K1Signer) SignBytes(data []byte) ([]byte, error) {
	hash := sha256.Sum256(data)
	return s.SignHash(hash[:])
}

func (s *InMemorySecp256K1Signer) SignHash(hash []byte) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("signer is nil")
	}
	key, err := ethcrypto.ToECDSA(s.privKey)
	if err != nil {
		return nil, err
	}
	return ethcrypto.Sign(hash, key)
}

func (s *InMemorySecp256K1Signer) MarshalPrivateKey() ([]byte, error) {
	return s.privKey, nil
}

func (s *InMemorySecp256K1Signer) Verifier() (Verifier, error) {
	key, err := ethcrypto.ToECDSA(s.privKey)
	if err != nil {
		return nil, err
	}
	return &verifierSecp256k1{pubKey: ethcrypto.CompressPubkey(&key.PublicKey)}, nil
}

// NewVerifierSecp256k1 creates new verifier from compressed public key.
func NewVerifierSecp256k1(compressedPubKey []byte) (Verifier, error) {
	if len(compressedPubKey) != CompressedSecp256K1PublicKeySize {
		return nil, fmt.Errorf("%w: pubkey must be %d bytes long, but is %d", ErrInvalidKey, CompressedSecp256K1PublicKeySize, len(compressedPubKey))
	}
	if _, err := ethcrypto.DecompressPubkey(compressedPubKey); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return &verifierSecp256k1{pubKey: compressedPubKey}, nil
}

func (v *verifierSecp256k1) VerifyBytes(sig []byte, data []byte) error {
	hash := sha256.Sum256(data)
	return v.VerifyHash(sig, hash[:])
}

func (v *verifierSecp256k1) VerifyHash(sig []byte, hash []byte) error {
	if len(sig) != SignatureSecp256K1Size {
		return fmt.Errorf("%w: signature length is %d bytes (expected %d)", ErrVerificationFailed, len(sig), SignatureSecp256K1Size)
	}
	// the last byte is the recovery id which is not used for verification
	if !ethcrypto.VerifySignature(v.pubKey, hash, sig[:64]) {
		return ErrVerificationFailed
	}
	return nil
}

func (v *verifierSecp256k1) MarshalPublicKey() ([]byte, error) {
	return v.pubKey, nil
}

func (v *verifierSecp256k1) UnmarshalPubKey() (crypto.PublicKey, error) {
	pk, err := ethcrypto.DecompressPubkey(v.pubKey)
	if err != nil {
		return nil, err
	}
	return pk, nil
}
