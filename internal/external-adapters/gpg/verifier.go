// Package gpg provides OpenPGP detached signature verification for catalog
// manifests.
package gpg

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// ErrNoKeys is returned when verification is attempted with an empty keyring
var ErrNoKeys = errors.New("no OpenPGP keys imported")

const armoredSignaturePrefix = "-----BEGIN PGP SIGNATURE-----"

// Verifier checks detached signatures using ProtonMail's go-crypto, the
// maintained fork of golang.org/x/crypto/openpgp
type Verifier struct {
	keyring openpgp.EntityList
}

// NewVerifier creates a verifier with an empty keyring
func NewVerifier() *Verifier {
	return &Verifier{
		keyring: make(openpgp.EntityList, 0),
	}
}

// ImportKeys adds every key in r to the keyring.
// Armored and binary keyrings are both accepted.
func (v *Verifier) ImportKeys(r io.Reader) error {
	// Limit keyring size to 10MB
	data, err := io.ReadAll(io.LimitReader(r, 10*1024*1024))
	if err != nil {
		return fmt.Errorf("failed to read keys: %w", err)
	}

	entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		entities, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
	}

	if len(entities) == 0 {
		return errors.New("no keys found")
	}

	v.keyring = append(v.keyring, entities...)
	return nil
}

// ImportKeyFromFile imports keys from a local keyring file
func (v *Verifier) ImportKeyFromFile(keyPath string) error {
	//nolint:gosec // G304: keyPath is the configured keyring
	f, err := os.Open(keyPath)
	if err != nil {
		return fmt.Errorf("failed to open key file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	if err := v.ImportKeys(f); err != nil {
		return fmt.Errorf("%s: %w", keyPath, err)
	}
	return nil
}

// VerifyDetached checks that signature is a valid detached signature over
// data made by a key in the keyring
func (v *Verifier) VerifyDetached(data, signature []byte) error {
	if len(v.keyring) == 0 {
		return ErrNoKeys
	}

	var err error
	if bytes.HasPrefix(bytes.TrimSpace(signature), []byte(armoredSignaturePrefix)) {
		_, err = openpgp.CheckArmoredDetachedSignature(v.keyring, bytes.NewReader(data), bytes.NewReader(signature), nil)
	} else {
		_, err = openpgp.CheckDetachedSignature(v.keyring, bytes.NewReader(data), bytes.NewReader(signature), nil)
	}
	if err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}

	return nil
}

// KeyringSize returns the number of imported keys
func (v *Verifier) KeyringSize() int {
	return len(v.keyring)
}
