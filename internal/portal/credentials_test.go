package portal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adolanium/SWLic/internal/config"
	apierrors "github.com/Adolanium/SWLic/internal/errors"
)

func TestParseCredentials(t *testing.T) {
	input := `
# portal account
username = jane@example.com
password=pa=ss=word
ignored=value
not a pair
`
	c, err := ParseCredentials(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", c.Username)
	assert.Equal(t, "pa=ss=word", c.Password)
}

func TestParseCredentials_CRLF(t *testing.T) {
	c, err := ParseCredentials(strings.NewReader("username=bob\r\npassword=secret\r\n"))
	require.NoError(t, err)
	assert.Equal(t, Credentials{Username: "bob", Password: "secret"}, c)
}

func writeCredentials(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestResolveCredentials(t *testing.T) {
	file := writeCredentials(t, "username=file-user\npassword=file-pass\n")

	tests := []struct {
		name    string
		cfg     config.PortalConfig
		want    Credentials
		wantErr bool
	}{
		{
			name: "file only",
			cfg:  config.PortalConfig{CredentialsFile: file},
			want: Credentials{Username: "file-user", Password: "file-pass"},
		},
		{
			name: "inline overrides file",
			cfg:  config.PortalConfig{CredentialsFile: file, Username: "inline-user"},
			want: Credentials{Username: "inline-user", Password: "file-pass"},
		},
		{
			name: "inline only, file not read",
			cfg:  config.PortalConfig{CredentialsFile: "/does/not/exist", Username: "u", Password: "p"},
			want: Credentials{Username: "u", Password: "p"},
		},
		{
			name:    "missing file",
			cfg:     config.PortalConfig{CredentialsFile: filepath.Join(t.TempDir(), "nope.txt")},
			wantErr: true,
		},
		{
			name:    "no file configured",
			cfg:     config.PortalConfig{Username: "u"},
			wantErr: true,
		},
		{
			name:    "file without password",
			cfg:     config.PortalConfig{CredentialsFile: writeCredentials(t, "username=x\n")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveCredentials(tt.cfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, apierrors.ErrCredentialsMissing)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
