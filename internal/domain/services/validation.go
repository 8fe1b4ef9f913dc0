package services

import (
	_ "crypto/sha256" // registers sha256 with go-digest
	"fmt"
	"net/url"
	"regexp"

	"github.com/opencontainers/go-digest"

	"github.com/ochairo/runtimes/internal/domain/entities"
)

var versionPattern = regexp.MustCompile(`^\d+\.\d+$`)

// ValidateRecord checks a single record against the catalog invariants
func ValidateRecord(r entities.DistributionRecord) error {
	if !versionPattern.MatchString(r.Version) {
		return fmt.Errorf("%w: %q is not major.minor", ErrInvalidVersion, r.Version)
	}
	if r.TargetTriple == "" {
		return fmt.Errorf("%w: empty", ErrUnknownTriple)
	}
	if !entities.IsKnownTriple(r.TargetTriple) {
		return fmt.Errorf("%w: %s", ErrUnknownTriple, r.TargetTriple)
	}
	return ValidateLocation(r.Location)
}

// ValidateLocation checks that loc is a well-formed remote or local location
func ValidateLocation(loc entities.Location) error {
	switch l := loc.(type) {
	case entities.RemoteLocation:
		u, err := url.Parse(l.URL)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidLocation, err)
		}
		if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return fmt.Errorf("%w: %q is not an absolute http(s) URL", ErrInvalidLocation, l.URL)
		}
		return ValidateSHA256(l.SHA256)
	case entities.LocalLocation:
		if l.Path == "" {
			return fmt.Errorf("%w: empty path", ErrInvalidLocation)
		}
		return nil
	case nil:
		return fmt.Errorf("%w: missing", ErrInvalidLocation)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidLocation, loc)
	}
}

// ValidateSHA256 checks that hex is a lowercase, 64 character sha256 digest
func ValidateSHA256(hex string) error {
	d := digest.NewDigestFromEncoded(digest.SHA256, hex)
	if err := d.Validate(); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidDigest, hex, err)
	}
	return nil
}
