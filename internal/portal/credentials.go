package portal

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Adolanium/SWLic/internal/config"
	apierrors "github.com/Adolanium/SWLic/internal/errors"
)

// Credentials is the portal account used to sign in
type Credentials struct {
	Username string
	Password string
}

// ParseCredentials reads key=value lines. Blank lines and lines starting with
// # are skipped; the value is everything after the first '='. Unknown keys
// are ignored.
func ParseCredentials(r io.Reader) (Credentials, error) {
	var c Credentials
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "username":
			c.Username = strings.TrimSpace(value)
		case "password":
			c.Password = strings.TrimSpace(value)
		}
	}
	if err := scanner.Err(); err != nil {
		return Credentials{}, fmt.Errorf("failed to read credentials: %w", err)
	}
	return c, nil
}

// LoadCredentials reads a credentials file from disk
func LoadCredentials(path string) (Credentials, error) {
	f, err := os.Open(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", apierrors.ErrCredentialsMissing, err)
	}
	defer f.Close()
	return ParseCredentials(f)
}

// ResolveCredentials combines inline configuration with the credentials file.
// Inline values win; the file is only read when one of them is missing.
func ResolveCredentials(cfg config.PortalConfig) (Credentials, error) {
	c := Credentials{Username: cfg.Username, Password: cfg.Password}
	if c.Username == "" || c.Password == "" {
		if cfg.CredentialsFile == "" {
			return Credentials{}, fmt.Errorf("%w: no credentials file configured", apierrors.ErrCredentialsMissing)
		}
		fromFile, err := LoadCredentials(cfg.CredentialsFile)
		if err != nil {
			return Credentials{}, err
		}
		if c.Username == "" {
			c.Username = fromFile.Username
		}
		if c.Password == "" {
			c.Password = fromFile.Password
		}
	}

	if c.Username == "" {
		return Credentials{}, fmt.Errorf("%w: username not set", apierrors.ErrCredentialsMissing)
	}
	if c.Password == "" {
		return Credentials{}, fmt.Errorf("%w: password not set", apierrors.ErrCredentialsMissing)
	}
	return c, nil
}
