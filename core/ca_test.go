package core

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"replicate/logger"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndLoadCA(t *testing.T) {
	logger.InitDiscard()
	dir := t.TempDir()
	certPath := filepath.Join(dir, "nested", "ca.crt")
	keyPath := filepath.Join(dir, "nested", "ca.key")

	require.NoError(t, GenerateAndSaveCA(certPath, keyPath))

	info, err := os.Stat(keyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	ca, err := LoadCA(certPath, keyPath)
	require.NoError(t, err)
	require.NotNil(t, ca.Leaf)
	assert.True(t, ca.Leaf.IsCA)
	assert.Equal(t, caCommonName, ca.Leaf.Subject.CommonName)
}

func TestLoadCAPKCS1Key(t *testing.T) {
	logger.InitDiscard()
	dir := t.TempDir()
	cert, key, err := generateCA("pkcs1")
	require.NoError(t, err)

	certPath := filepath.Join(dir, "ca.crt")
	keyPath := filepath.Join(dir, "ca.key")
	require.NoError(t, os.WriteFile(certPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}), 0600))
	require.NoError(t, os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}), 0600))

	ca, err := LoadCA(certPath, keyPath)
	require.NoError(t, err)
	assert.Equal(t, "pkcs1", ca.Leaf.Subject.CommonName)
}

func TestLoadCAErrors(t *testing.T) {
	logger.InitDiscard()
	dir := t.TempDir()

	_, err := LoadCA(filepath.Join(dir, "missing.crt"), filepath.Join(dir, "missing.key"))
	assert.Error(t, err)

	certPath := filepath.Join(dir, "ca.crt")
	require.NoError(t, os.WriteFile(certPath, []byte("garbage"), 0600))
	_, err = LoadCA(certPath, filepath.Join(dir, "missing.key"))
	assert.ErrorContains(t, err, "decode")

	cert, _, err := generateCA("x")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(certPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}), 0600))
	other, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)
	keyPath := filepath.Join(dir, "ca.key")
	require.NoError(t, os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(other)}), 0600))
	_, err = LoadCA(certPath, keyPath)
	assert.ErrorContains(t, err, "unknown CA key PEM block type")
}
