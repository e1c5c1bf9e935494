package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/accounts"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"

	"github.com/alphabill-org/pregenesis/crypto"
	"github.com/alphabill-org/pregenesis/types"
)

const mnemonicEntropyBitSize = 128

var ErrInvalidMnemonic = errors.New("invalid mnemonic")

type (
	// Keys is the root of the key hierarchy of the wallet.
	Keys struct {
		Mnemonic  string
		MasterKey *hdkeychain.ExtendedKey
	}

	// AccountKey is secp256k1 key derived from the master key.
	AccountKey struct {
		Index          uint32
		PubKey         types.PublicKey
		PrivKey        []byte
		DerivationPath string
	}
)

/*
NewKeys creates wallet keys from the mnemonic. When mnemonic is empty string
new random mnemonic is generated.
*/
func NewKeys(mnemonic string) (*Keys, error) {
	if mnemonic == "" {
		var err error
		if mnemonic, err = generateMnemonic(); err != nil {
			return nil, fmt.Errorf("generating mnemonic: %w", err)
		}
	}
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("creating seed: %w", err)
	}
	// only HDPrivateKeyID of the params is used, as the version of the extended key
	masterKey, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("creating master key: %w", err)
	}
	return &Keys{Mnemonic: mnemonic, MasterKey: masterKey}, nil
}

// AccountKey derives the key of the account with given index.
func (k *Keys) AccountKey(index uint32) (*AccountKey, error) {
	return NewAccountKey(k.MasterKey, index)
}

func NewAccountKey(masterKey *hdkeychain.ExtendedKey, index uint32) (*AccountKey, error) {
	derivationPath := DerivationPath(index)
	path, err := accounts.ParseDerivationPath(derivationPath)
	if err != nil {
		return nil, fmt.Errorf("parsing derivation path: %w", err)
	}
	privateKey, err := derivePrivateKey(path, masterKey)
	if err != nil {
		return nil, fmt.Errorf("deriving key %s: %w", derivationPath, err)
	}
	privKey := ethcrypto.FromECDSA(privateKey)
	pk, err := types.NewPublicKey(ethcrypto.CompressPubkey(&privateKey.PublicKey))
	if err != nil {
		return nil, err
	}
	return &AccountKey{
		Index:          index,
		PubKey:         pk,
		PrivKey:        privKey,
		DerivationPath: derivationPath,
	}, nil
}

// Signer returns signer using the private key of the account.
func (ak *AccountKey) Signer() (crypto.Signer, error) {
	return crypto.NewInMemorySecp256K1SignerFromKey(ak.PrivKey)
}

/*
DerivationPath returns BIP-44 derivation path of the account:

	m / purpose' / coin_type' / account' / change / address_index

coin type 634 is shared with the rest of the chain tooling, change and
address index are always zero (one address per account).
*/
func DerivationPath(index uint32) string {
	return fmt.Sprintf("m/44'/634'/%d'/0/0", index)
}

func generateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(mnemonicEntropyBitSize)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

func derivePrivateKey(path accounts.DerivationPath, masterKey *hdkeychain.ExtendedKey) (*ecdsa.PrivateKey, error) {
	var err error
	derivedKey := masterKey
	for _, n := range path {
		if derivedKey, err = derivedKey.Derive(n); err != nil {
			return nil, err
		}
	}
	privateKey, err := derivedKey.ECPrivKey()
	if err != nil {
		return nil, err
	}
	return privateKey.ToECDSA(), nil
}
