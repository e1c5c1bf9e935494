package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alphabill-org/pregenesis/util"
	"github.com/alphabill-org/pregenesis/wallet"
)

const (
	testPassword  = "123456"
	testMnemonic  = "dinosaur simple verify deliver bless ridge monkey design venue six problem lucky"
	testPubKey0   = "0x03c30573dc0c7fd43fcb801289a6a96cb78c27f4ba398b89da91ece23e9a99aca3"
	testPubKey1   = "0x02d36c574db299904b285aaeb57eb7b1fa145c43af90bec3c635c4174c224587b6"
	testKey0Entry = "#0 " + testPubKey0 + " (m/44'/634'/0'/0/0)"
	testKey1Entry = "#1 " + testPubKey1 + " (m/44'/634'/1'/0/0)"
)

func initTestWallet(t *testing.T, homeDir string) {
	t.Helper()
	_, err := execCmd(t, homeDir, "wallet", "init", "--mnemonic", testMnemonic, "-p", testPassword)
	require.NoError(t, err)
}

func TestWalletInit(t *testing.T) {
	homeDir := t.TempDir()

	out, err := execCmd(t, homeDir, "wallet", "init", "-p", testPassword)
	require.NoError(t, err)
	require.True(t, util.FileExists(filepath.Join(homeDir, defaultWalletDir, wallet.FileName)))
	verifyStdout(t, out,
		"The following mnemonic key can be used to recover your wallet. Please write it down now, and keep it in a safe, offline place.",
		"Wallet created in "+filepath.Join(homeDir, defaultWalletDir),
		"#0 0x",
	)

	_, err = execCmd(t, homeDir, "wallet", "init", "-p", testPassword)
	require.ErrorIs(t, err, wallet.ErrWalletExists)
}

func TestWalletInit_FromMnemonic(t *testing.T) {
	homeDir := t.TempDir()
	walletDir := filepath.Join(t.TempDir(), "custom")

	out, err := execCmd(t, homeDir, "wallet", "init", "--mnemonic", testMnemonic, "-p", testPassword, "--wallet-dir", walletDir)
	require.NoError(t, err)
	require.True(t, util.FileExists(filepath.Join(walletDir, wallet.FileName)))
	require.NotContains(t, out.String(), "mnemonic key:")
	verifyStdout(t, out, testKey0Entry)

	_, err = execCmd(t, homeDir, "wallet", "init", "--mnemonic", "invalid mnemonic", "-p", testPassword, "-w", t.TempDir())
	require.ErrorIs(t, err, wallet.ErrInvalidMnemonic)
}

func TestWalletAddKeyAndList(t *testing.T) {
	homeDir := t.TempDir()

	_, err := execCmd(t, homeDir, "wallet", "list", "-p", testPassword)
	require.ErrorIs(t, err, wallet.ErrWalletNotFound)

	initTestWallet(t, homeDir)

	out, err := execCmd(t, homeDir, "wallet", "add-key", "-p", testPassword)
	require.NoError(t, err)
	require.Equal(t, []string{testKey1Entry}, out.lines)

	out, err = execCmd(t, homeDir, "wallet", "list", "-p", testPassword)
	require.NoError(t, err)
	require.Equal(t, []string{testKey0Entry, testKey1Entry}, out.lines)

	_, err = execCmd(t, homeDir, "wallet", "list", "-p", "wrong password")
	require.ErrorIs(t, err, wallet.ErrInvalidPassword)
}

func TestWalletGenValidatorKeys(t *testing.T) {
	homeDir := t.TempDir()
	initTestWallet(t, homeDir)

	out, err := execCmd(t, homeDir, "wallet", "gen-validator-keys", "-p", testPassword)
	require.NoError(t, err)
	verifyStdout(t, out, "consensus key: 0x", "protocol key: 0x", "tendermint node key: 0x", "eth hot key: 0x", "eth cold key: 0x", "node ID: 16Uiu2")

	_, err = execCmd(t, homeDir, "wallet", "gen-validator-keys", "-p", testPassword)
	require.ErrorIs(t, err, wallet.ErrValidatorKeysSet)

	out, err = execCmd(t, homeDir, "wallet", "list", "-p", testPassword)
	require.NoError(t, err)
	require.Len(t, out.lines, 6)
}
