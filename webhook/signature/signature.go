package signature

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// SecretPrefix is the prefix for Standard Webhooks symmetric secrets
	SecretPrefix = "whsec_"

	// SignatureVersion is the version identifier for symmetric signatures
	SignatureVersion = "v1"

	// MinSecretBytes is the minimum recommended secret size (192 bits)
	MinSecretBytes = 24

	// MaxSecretBytes is the maximum recommended secret size (512 bits)
	MaxSecretBytes = 64
)

var (
	ErrInvalidSecret      = errors.New("invalid webhook secret")
	ErrNoSupportedVersion = errors.New("no supported signature version")
	ErrMismatch           = errors.New("signature mismatch")
)

// Secret represents a Standard Webhooks signing secret
type Secret struct {
	raw    []byte
	base64 string
}

// GenerateSecret creates a new cryptographically secure signing secret
// between MinSecretBytes and MaxSecretBytes in size.
func GenerateSecret(size int) (Secret, error) {
	if size < MinSecretBytes || size > MaxSecretBytes {
		return Secret{}, fmt.Errorf("secret size must be between %d and %d bytes", MinSecretBytes, MaxSecretBytes)
	}

	bytes := make([]byte, size)
	if _, err := rand.Read(bytes); err != nil {
		return Secret{}, fmt.Errorf("generating random bytes: %w", err)
	}

	return Secret{
		raw:    bytes,
		base64: SecretPrefix + base64.StdEncoding.EncodeToString(bytes),
	}, nil
}

// ParseSecret parses a base64-encoded secret with the whsec_ prefix.
// Every failure wraps ErrInvalidSecret.
func ParseSecret(encoded string) (Secret, error) {
	if !strings.HasPrefix(encoded, SecretPrefix) {
		return Secret{}, fmt.Errorf("%w: secret must start with %s prefix", ErrInvalidSecret, SecretPrefix)
	}

	b64 := strings.TrimPrefix(encoded, SecretPrefix)
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return Secret{}, fmt.Errorf("%w: decoding base64 secret: %v", ErrInvalidSecret, err)
	}

	if len(raw) < MinSecretBytes || len(raw) > MaxSecretBytes {
		return Secret{}, fmt.Errorf("%w: secret size must be between %d and %d bytes", ErrInvalidSecret, MinSecretBytes, MaxSecretBytes)
	}

	return Secret{
		raw:    raw,
		base64: encoded,
	}, nil
}

// String returns the base64-encoded secret with prefix
func (s Secret) String() string {
	return s.base64
}

// Bytes returns the raw secret bytes
func (s Secret) Bytes() []byte {
	return s.raw
}

// Signature is one versioned entry of a signature header
type Signature struct {
	Version   string
	Signature string
}

// String returns the signature in the format: v1,<base64_signature>
func (s Signature) String() string {
	return fmt.Sprintf("%s,%s", s.Version, s.Signature)
}

// ParseSignature parses a single entry in either the v1,<sig> or the v1=<sig> form
func ParseSignature(sig string) (Signature, error) {
	comma := strings.IndexByte(sig, ',')
	equals := strings.IndexByte(sig, '=')

	sep := comma
	if sep < 0 || (equals >= 0 && equals < comma) {
		sep = equals
	}
	if sep <= 0 || sep == len(sig)-1 {
		return Signature{}, fmt.Errorf("invalid signature format, expected 'version,signature' or 'version=signature'")
	}

	return Signature{
		Version:   sig[:sep],
		Signature: sig[sep+1:],
	}, nil
}

// SignedContent builds the byte sequence covered by the MAC: {msgID}.{timestamp}.{payload}
func SignedContent(msgID, timestamp string, payload []byte) []byte {
	content := make([]byte, 0, len(msgID)+len(timestamp)+len(payload)+2)
	content = append(content, msgID...)
	content = append(content, '.')
	content = append(content, timestamp...)
	content = append(content, '.')
	return append(content, payload...)
}

// Compute returns the raw HMAC-SHA256 digest of the signed content
func Compute(key []byte, msgID, timestamp string, payload []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(SignedContent(msgID, timestamp, payload))
	return mac.Sum(nil)
}

// Sign creates a Standard Webhooks signature for the given webhook
func Sign(secret Secret, msgID string, timestamp time.Time, payload []byte) (Signature, error) {
	if strings.Contains(msgID, ".") {
		return Signature{}, fmt.Errorf("message ID must not contain '.'")
	}

	timestampStr := strconv.FormatInt(timestamp.Unix(), 10)
	digest := Compute(secret.Bytes(), msgID, timestampStr, payload)

	return Signature{
		Version:   SignatureVersion,
		Signature: base64.StdEncoding.EncodeToString(digest),
	}, nil
}

func verifyRaw(secret Secret, msgID, timestamp string, payload []byte, expectedSig Signature) (bool, error) {
	if expectedSig.Version != SignatureVersion {
		return false, fmt.Errorf("unsupported signature version: %s", expectedSig.Version)
	}

	expected, err := base64.StdEncoding.DecodeString(expectedSig.Signature)
	if err != nil {
		return false, fmt.Errorf("decoding expected signature: %w", err)
	}

	calculated := Compute(secret.Bytes(), msgID, timestamp, payload)

	return subtle.ConstantTimeCompare(expected, calculated) == 1, nil
}

// VerifyHeader checks a raw signature header against the signed content.
// The timestamp is used exactly as delivered. Entries with a version other
// than SignatureVersion are skipped; ErrNoSupportedVersion is returned when
// none remain and ErrMismatch when none of them match.
func VerifyHeader(secret Secret, msgID, timestamp string, payload []byte, header string) error {
	signatures, err := ParseSignatureHeader(header)
	if err != nil {
		return err
	}

	supported := 0
	for _, sig := range signatures {
		if sig.Version != SignatureVersion {
			continue
		}
		supported++
		valid, err := verifyRaw(secret, msgID, timestamp, payload, sig)
		if err != nil {
			// a malformed entry must not hide a valid one
			continue
		}
		if valid {
			return nil
		}
	}

	if supported == 0 {
		return ErrNoSupportedVersion
	}
	return ErrMismatch
}

// ParseSignatureHeader parses a signature header. Two layouts are accepted:
// space-delimited "v1,sig1 v1,sig2" and comma-delimited "v1=sig1,v1=sig2".
// Unparseable entries are skipped; an error is returned only when no entry parses.
func ParseSignatureHeader(header string) ([]Signature, error) {
	if strings.TrimSpace(header) == "" {
		return nil, fmt.Errorf("signature header is empty")
	}

	var signatures []Signature
	var firstErr error
	for _, part := range strings.Fields(header) {
		entries := []string{part}
		if isPairList(part) {
			entries = strings.Split(part, ",")
		}

		for _, entry := range entries {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}
			sig, err := ParseSignature(entry)
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("parsing signature '%s': %w", entry, err)
				}
				continue
			}
			signatures = append(signatures, sig)
		}
	}

	if len(signatures) == 0 {
		if firstErr != nil {
			return nil, firstErr
		}
		return nil, fmt.Errorf("no valid signatures found in header")
	}

	return signatures, nil
}

// isPairList reports whether a token uses version=value entries
func isPairList(token string) bool {
	equals := strings.IndexByte(token, '=')
	comma := strings.IndexByte(token, ',')
	return equals >= 0 && (comma < 0 || equals < comma)
}

// BuildSignatureHeader joins signatures into one space-delimited header value,
// as a sender does while rotating secrets
func BuildSignatureHeader(signatures []Signature) string {
	parts := make([]string, len(signatures))
	for i, sig := range signatures {
		parts[i] = sig.String()
	}
	return strings.Join(parts, " ")
}
