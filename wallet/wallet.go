package wallet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"

	"github.com/alphabill-org/pregenesis/crypto"
	"github.com/alphabill-org/pregenesis/genesis"
	"github.com/alphabill-org/pregenesis/keyvaluedb"
	"github.com/alphabill-org/pregenesis/keyvaluedb/boltdb"
	"github.com/alphabill-org/pregenesis/logger"
	"github.com/alphabill-org/pregenesis/types"
)

const FileName = "wallet.db"

var (
	ErrWalletExists     = errors.New("wallet already exists")
	ErrWalletNotFound   = errors.New("wallet not found")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrNoValidatorKeys  = errors.New("validator keys have not been generated")
	ErrValidatorKeysSet = errors.New("validator keys have already been generated")

	errStopIteration = errors.New("stop iteration")
)

var (
	keyPasswordCheck   = []byte("password")
	keyMnemonic        = []byte("mnemonic")
	keyMasterKey       = []byte("masterKey")
	keyMaxAccountIndex = []byte("maxAccountIndex")
	keyValidatorKeys   = []byte("validatorKeys")
	prefixAccount      = []byte("account/")

	passwordCheckPayload = []byte("pregenesis wallet")
)

type (
	/*
	Wallet holds the secret keys of the genesis participant. All secrets are
	stored encrypted with the wallet password.
	*/
	Wallet struct {
		db       keyvaluedb.KeyValueDB
		password string
		log      *slog.Logger
	}

	storedKey struct {
		_              struct{} `cbor:",toarray"`
		Index          uint32
		PubKey         types.PublicKey
		PrivKey        string // encrypted
		DerivationPath string
	}

	// account indexes of the validator role keys
	validatorKeyIndexes struct {
		_              struct{} `cbor:",toarray"`
		Consensus      uint32
		Protocol       uint32
		TendermintNode uint32
		EthHot         uint32
		EthCold        uint32
	}
)

// OpenDB opens (creating when missing) the wallet database file in the directory.
func OpenDB(dir string) (keyvaluedb.KeyValueDB, error) {
	return boltdb.New(filepath.Join(dir, FileName), nil)
}

/*
Create initializes new wallet in the empty db. Keys are derived from the
mnemonic, when it's empty string new mnemonic is generated. The key of the
first account is added to the wallet.
*/
func Create(db keyvaluedb.KeyValueDB, password, mnemonic string, log *slog.Logger) (*Wallet, error) {
	if password == "" {
		return nil, crypto.ErrEmptyPassphrase
	}
	empty, err := keyvaluedb.IsEmpty(db)
	if err != nil {
		return nil, err
	}
	if !empty {
		return nil, ErrWalletExists
	}
	keys, err := NewKeys(mnemonic)
	if err != nil {
		return nil, err
	}

	w := &Wallet{db: db, password: password, log: log}
	if err := w.init(keys); err != nil {
		return nil, fmt.Errorf("initializing wallet: %w", err)
	}
	log.Info("wallet created")
	return w, nil
}

// Open loads existing wallet from the db.
func Open(db keyvaluedb.KeyValueDB, password string, log *slog.Logger) (*Wallet, error) {
	var check string
	found, err := db.Read(keyPasswordCheck, &check)
	if err != nil {
		return nil, fmt.Errorf("reading wallet: %w", err)
	}
	if !found {
		return nil, ErrWalletNotFound
	}
	if _, err := crypto.Decrypt(password, check); err != nil {
		log.Debug("opening wallet", logger.Error(err))
		return nil, ErrInvalidPassword
	}
	return &Wallet{db: db, password: password, log: log}, nil
}

func (w *Wallet) init(keys *Keys) error {
	check, err := crypto.Encrypt(w.password, passwordCheckPayload)
	if err != nil {
		return err
	}
	mnemonic, err := crypto.Encrypt(w.password, []byte(keys.Mnemonic))
	if err != nil {
		return err
	}
	masterKey, err := crypto.Encrypt(w.password, []byte(keys.MasterKey.String()))
	if err != nil {
		return err
	}
	acc, err := keys.AccountKey(0)
	if err != nil {
		return err
	}

	tx, err := w.db.StartTx()
	if err != nil {
		return err
	}
	if err := w.writeAccount(tx, acc); err != nil {
		_ = tx.Rollback()
		return err
	}
	for _, kv := range []struct {
		key   []byte
		value any
	}{
		{keyMnemonic, mnemonic},
		{keyMasterKey, masterKey},
		{keyMaxAccountIndex, acc.Index},
		{keyPasswordCheck, check},
	} {
		if err := tx.Write(kv.key, kv.value); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("writing %s: %w", kv.key, err)
		}
	}
	return tx.Commit()
}

// Mnemonic returns the mnemonic the keys of the wallet are derived from.
func (w *Wallet) Mnemonic() (string, error) {
	b, err := w.readSecret(keyMnemonic)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (w *Wallet) masterKey() (*hdkeychain.ExtendedKey, error) {
	b, err := w.readSecret(keyMasterKey)
	if err != nil {
		return nil, err
	}
	return hdkeychain.NewKeyFromString(string(b))
}

/*
AddKey derives the key of the next account and stores it in the wallet.
*/
func (w *Wallet) AddKey() (*AccountKey, error) {
	keys, err := w.addKeys(1)
	if err != nil {
		return nil, err
	}
	return keys[0], nil
}

func (w *Wallet) addKeys(count int) ([]*AccountKey, error) {
	masterKey, err := w.masterKey()
	if err != nil {
		return nil, err
	}
	var maxIdx uint32
	if _, err := w.db.Read(keyMaxAccountIndex, &maxIdx); err != nil {
		return nil, fmt.Errorf("reading max account index: %w", err)
	}

	tx, err := w.db.StartTx()
	if err != nil {
		return nil, err
	}
	keys := make([]*AccountKey, count)
	for i := range keys {
		maxIdx++
		if keys[i], err = NewAccountKey(masterKey, maxIdx); err != nil {
			_ = tx.Rollback()
			return nil, err
		}
		if err := w.writeAccount(tx, keys[i]); err != nil {
			_ = tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Write(keyMaxAccountIndex, maxIdx); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("writing max account index: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	for _, k := range keys {
		w.log.Debug(fmt.Sprintf("added key %s", k.DerivationPath), logger.Index(int(k.Index)))
	}
	return keys, nil
}

// Keys returns all the keys of the wallet ordered by account index.
func (w *Wallet) Keys() ([]*AccountKey, error) {
	var keys []*AccountKey
	err := keyvaluedb.ForEach(w.db, prefixAccount, func(_ []byte, it keyvaluedb.Iterator) error {
		var sk storedKey
		if err := it.Value(&sk); err != nil {
			return err
		}
		ak, err := w.accountKey(&sk)
		if err != nil {
			return err
		}
		keys = append(keys, ak)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading keys: %w", err)
	}
	return keys, nil
}

// PublicKeys returns the public keys of all the accounts.
func (w *Wallet) PublicKeys() ([]types.PublicKey, error) {
	var pks []types.PublicKey
	err := keyvaluedb.ForEach(w.db, prefixAccount, func(_ []byte, it keyvaluedb.Iterator) error {
		var sk storedKey
		if err := it.Value(&sk); err != nil {
			return err
		}
		pks = append(pks, sk.PubKey)
		return nil
	})
	return pks, err
}

/*
FindKeyByPublicKey returns signer for the public key. genesis.ErrKeyNotFound
is returned when the wallet doesn't contain the key.
*/
func (w *Wallet) FindKeyByPublicKey(pk types.PublicKey) (crypto.Signer, error) {
	var found *storedKey
	err := keyvaluedb.ForEach(w.db, prefixAccount, func(_ []byte, it keyvaluedb.Iterator) error {
		var sk storedKey
		if err := it.Value(&sk); err != nil {
			return err
		}
		if sk.PubKey == pk {
			found = &sk
			return errStopIteration
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopIteration) {
		return nil, fmt.Errorf("searching key: %w", err)
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", genesis.ErrKeyNotFound, pk)
	}
	ak, err := w.accountKey(found)
	if err != nil {
		return nil, err
	}
	return ak.Signer()
}

/*
GenerateValidatorKeys derives a new key for each validator key role. The
wallet holds only one set of validator keys.
*/
func (w *Wallet) GenerateValidatorKeys() (*genesis.ValidatorKeys, *genesis.ValidatorPublicKeys, error) {
	found, err := w.db.Read(keyValidatorKeys, &validatorKeyIndexes{})
	if err != nil {
		return nil, nil, fmt.Errorf("reading validator keys: %w", err)
	}
	if found {
		return nil, nil, ErrValidatorKeysSet
	}

	keys, err := w.addKeys(5)
	if err != nil {
		return nil, nil, fmt.Errorf("deriving validator keys: %w", err)
	}
	idx := validatorKeyIndexes{
		Consensus:      keys[0].Index,
		Protocol:       keys[1].Index,
		TendermintNode: keys[2].Index,
		EthHot:         keys[3].Index,
		EthCold:        keys[4].Index,
	}
	if err := w.db.Write(keyValidatorKeys, &idx); err != nil {
		return nil, nil, fmt.Errorf("writing validator keys: %w", err)
	}
	w.log.Info("validator keys generated")
	return w.ValidatorKeys()
}

// ValidatorKeys returns the validator role keys generated earlier.
func (w *Wallet) ValidatorKeys() (*genesis.ValidatorKeys, *genesis.ValidatorPublicKeys, error) {
	var idx validatorKeyIndexes
	found, err := w.db.Read(keyValidatorKeys, &idx)
	if err != nil {
		return nil, nil, fmt.Errorf("reading validator keys: %w", err)
	}
	if !found {
		return nil, nil, ErrNoValidatorKeys
	}

	indexes := []uint32{idx.Consensus, idx.Protocol, idx.TendermintNode, idx.EthHot, idx.EthCold}
	signers := make([]crypto.Signer, len(indexes))
	pks := make([]types.PublicKey, len(indexes))
	for i, accIdx := range indexes {
		ak, err := w.readAccount(accIdx)
		if err != nil {
			return nil, nil, err
		}
		if signers[i], err = ak.Signer(); err != nil {
			return nil, nil, err
		}
		pks[i] = ak.PubKey
	}
	keys := &genesis.ValidatorKeys{
		Consensus:      signers[0],
		Protocol:       signers[1],
		TendermintNode: signers[2],
		EthHot:         signers[3],
		EthCold:        signers[4],
	}
	public := &genesis.ValidatorPublicKeys{
		Consensus:      pks[0],
		Protocol:       pks[1],
		TendermintNode: pks[2],
		EthHot:         pks[3],
		EthCold:        pks[4],
	}
	return keys, public, nil
}

func (w *Wallet) Close() error {
	return w.db.Close()
}

func (w *Wallet) readSecret(key []byte) ([]byte, error) {
	var s string
	found, err := w.db.Read(key, &s)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	if !found {
		return nil, fmt.Errorf("%s not found", key)
	}
	return crypto.Decrypt(w.password, s)
}

func (w *Wallet) readAccount(index uint32) (*AccountKey, error) {
	var sk storedKey
	found, err := w.db.Read(accountDBKey(index), &sk)
	if err != nil {
		return nil, fmt.Errorf("reading account %d: %w", index, err)
	}
	if !found {
		return nil, fmt.Errorf("account %d not found", index)
	}
	return w.accountKey(&sk)
}

func (w *Wallet) writeAccount(tx keyvaluedb.DBTransaction, ak *AccountKey) error {
	privKey, err := crypto.Encrypt(w.password, ak.PrivKey)
	if err != nil {
		return fmt.Errorf("encrypting key: %w", err)
	}
	return tx.Write(accountDBKey(ak.Index), &storedKey{
		Index:          ak.Index,
		PubKey:         ak.PubKey,
		PrivKey:        privKey,
		DerivationPath: ak.DerivationPath,
	})
}

func (w *Wallet) accountKey(sk *storedKey) (*AccountKey, error) {
	privKey, err := crypto.Decrypt(w.password, sk.PrivKey)
	if err != nil {
		return nil, fmt.Errorf("decrypting key of account %d: %w", sk.Index, err)
	}
	return &AccountKey{
		Index:          sk.Index,
		PubKey:         sk.PubKey,
		PrivKey:        privKey,
		DerivationPath: sk.DerivationPath,
	}, nil
}

// big endian index keeps the accounts in index order
func accountDBKey(index uint32) []byte {
	return binary.BigEndian.AppendUint32(append([]byte{}, prefixAccount...), index)
}
