package genesis

import (
	"crypto/sha256"
	"fmt"

	"github.com/alphabill-org/pregenesis/types"
)

// EstablishedAccountTxSalt is mixed into the hash of established account
// transaction when deriving the address of the account.
const EstablishedAccountTxSalt = "established-account-tx"

/*
DeriveAddress returns the address of the account declared by the transaction:
first 20 bytes of sha256(salt || canonical CBOR of the transaction).
*/
func (tx *EstablishedAccountTx) DeriveAddress() (types.EstablishedAddress, error) {
	return deriveAddress(EstablishedAccountTxSalt, tx)
}

func deriveAddress(salt string, tx any) (types.EstablishedAddress, error) {
	var addr types.EstablishedAddress
	data, err := types.Cbor.Marshal(tx)
	if err != nil {
		return addr, fmt.Errorf("encoding transaction: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(salt))
	h.Write(data)
	copy(addr[:], h.Sum(nil))
	return addr, nil
}
