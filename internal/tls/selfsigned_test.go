package tls

import (
	cryptotls "crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureCertificate(t *testing.T) {
	dir := t.TempDir()
	certPath := filepath.Join(dir, "certs", "server.crt")
	keyPath := filepath.Join(dir, "certs", "server.key")

	created, err := EnsureCertificate(certPath, keyPath, []string{"localhost", "127.0.0.1"})
	require.NoError(t, err)
	assert.True(t, created)

	pair, err := cryptotls.LoadX509KeyPair(certPath, keyPath)
	require.NoError(t, err)
	require.NotEmpty(t, pair.Certificate)

	raw, err := os.ReadFile(certPath)
	require.NoError(t, err)
	block, _ := pem.Decode(raw)
	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost"}, cert.DNSNames)
	require.Len(t, cert.IPAddresses, 1)
	assert.Equal(t, "127.0.0.1", cert.IPAddresses[0].String())

	created, err = EnsureCertificate(certPath, keyPath, []string{"localhost"})
	require.NoError(t, err)
	assert.False(t, created)
}

func TestEnsureCertificate_ReplacesGarbage(t *testing.T) {
	dir := t.TempDir()
	certPath := filepath.Join(dir, "server.crt")
	keyPath := filepath.Join(dir, "server.key")
	require.NoError(t, os.WriteFile(certPath, []byte("not a cert"), 0o644))
	require.NoError(t, os.WriteFile(keyPath, []byte("not a key"), 0o600))

	created, err := EnsureCertificate(certPath, keyPath, []string{"localhost"})
	require.NoError(t, err)
	assert.True(t, created)
}

func TestGenerateSelfSignedCert_NeedsHost(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, GenerateSelfSignedCert(filepath.Join(dir, "c"), filepath.Join(dir, "k"), nil))
}
