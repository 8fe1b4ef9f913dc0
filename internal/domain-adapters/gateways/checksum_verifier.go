package gateways

import (
	"context"
	_ "crypto/sha256" // registers sha256 with go-digest
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/opencontainers/go-digest"
)

// ErrChecksumMismatch is returned when a file does not hash to its expected digest
var ErrChecksumMismatch = errors.New("checksum mismatch")

// checksumVerifier implements checksum verification with go-digest
type checksumVerifier struct{}

// NewChecksumVerifier creates a new checksum verifier
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewChecksumVerifier() *checksumVerifier {
	return &checksumVerifier{}
}

// VerifyChecksum verifies a file's SHA256 checksum.
// expectedSum is the lowercase hex encoding of the digest.
func (v *checksumVerifier) VerifyChecksum(ctx context.Context, filePath, expectedSum string) error {
	expected := digest.NewDigestFromEncoded(digest.SHA256, expectedSum)
	if err := expected.Validate(); err != nil {
		return fmt.Errorf("invalid expected checksum %q: %w", expectedSum, err)
	}

	//nolint:gosec // G304: File path is user-provided for checksum verification
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	verifier := expected.Verifier()
	if _, err := io.Copy(verifier, &contextReader{ctx: ctx, r: f}); err != nil {
		return fmt.Errorf("failed to hash file: %w", err)
	}

	if !verifier.Verified() {
		actual, err := v.CalculateChecksum(filePath)
		if err != nil {
			return fmt.Errorf("%w: expected %s", ErrChecksumMismatch, expectedSum)
		}
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, expectedSum, actual)
	}

	return nil
}

// CalculateChecksum calculates the SHA256 checksum of a file
func (v *checksumVerifier) CalculateChecksum(filePath string) (string, error) {
	//nolint:gosec // G304: File path is user-provided for checksum calculation
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	d, err := digest.SHA256.FromReader(f)
	if err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return d.Encoded(), nil
}

// contextReader stops a long copy once ctx is done
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
