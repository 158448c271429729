package templates

import (
	"os"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

func readFile(path string) (string, error) {
	b, err := os.ReadFile(path) // #nosec G304 -- caller-controlled template directory
	if err != nil {
		return "", errors.FileSystemError("failed to read template").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return string(b), nil
}
