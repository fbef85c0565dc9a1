package hasher

import (
	"crypto/sha1" //nolint:gosec // Maven repositories publish sha1 checksums
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
)

// CalculateSHA256 computes the SHA256 hash of the given content
// and returns it in the format "sha256:<hex_hash>".
func CalculateSHA256(content []byte) (string, error) {
	hasher := sha256.New()
	_, err := hasher.Write(content)
	if err != nil {
		return "", eris.Wrap(err, "failed to write content to hasher")
	}
	hashBytes := hasher.Sum(nil)
	hashString := hex.EncodeToString(hashBytes)
	return fmt.Sprintf("sha256:%s", hashString), nil
}

// HashFile streams the file at path through SHA256 and returns "sha256:<hex_hash>".
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", eris.Wrapf(err, "failed to open %s for hashing", path)
	}
	defer func() { _ = f.Close() }()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", eris.Wrapf(err, "failed to hash %s", path)
	}
	return "sha256:" + hex.EncodeToString(hasher.Sum(nil)), nil
}

// SHA1Hex returns the bare lowercase hex SHA1 digest, the format used by
// the .sha1 sidecar files in Maven repositories.
func SHA1Hex(content []byte) string {
	sum := sha1.Sum(content) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
