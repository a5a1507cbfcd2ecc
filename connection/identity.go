package connection

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/pbkdf2"
)

// Identity is a node's long-term Ed25519 signing key: it authenticates
// attestation reports. It is not used by the mTLS layer, whose
// certificates and keys are loaded separately from PEM files.
type Identity struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// GenerateIdentity creates a new random identity.
func GenerateIdentity() (*Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &Identity{priv: priv, pub: pub}, nil
}

// Public returns the identity's Ed25519 public key.
func (id *Identity) Public() ed25519.PublicKey { return id.pub }

type identityFile struct {
	PubKey     string `json:"pub_key"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipher_text"`
}

// pbkdf2Iterations matches wallet/keystore.go's key-derivation cost.
const pbkdf2Iterations = 210_000

// SaveIdentity encrypts id's private key with password and writes it to
// path, using the same pbkdf2 + AES-GCM scheme wallet/keystore.go uses
// for wallet keys.
func SaveIdentity(path, password string, id *Identity) error {
	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return err
	}
	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, 32, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return err
	}
	cipherText := gcm.Seal(nil, nonce, id.priv, nil)

	f := identityFile{
		PubKey:     hex.EncodeToString(id.pub),
		Salt:       hex.EncodeToString(salt),
		Nonce:      hex.EncodeToString(nonce),
		CipherText: hex.EncodeToString(cipherText),
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// LoadIdentity decrypts the identity stored at path using password.
func LoadIdentity(path, password string) (*Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f identityFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	salt, err := hex.DecodeString(f.Salt)
	if err != nil {
		return nil, err
	}
	nonce, err := hex.DecodeString(f.Nonce)
	if err != nil {
		return nil, err
	}
	cipherText, err := hex.DecodeString(f.CipherText)
	if err != nil {
		return nil, err
	}

	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	privBytes, err := gcm.Open(nil, nonce, cipherText, nil)
	if err != nil {
		return nil, errors.New("connection: wrong password or corrupted identity file")
	}
	pub, err := hex.DecodeString(f.PubKey)
	if err != nil {
		return nil, err
	}
	priv := ed25519.PrivateKey(privBytes)
	if !ed25519.PublicKey(pub).Equal(priv.Public().(ed25519.PublicKey)) {
		return nil, fmt.Errorf("connection: stored public key does not match decrypted private key")
	}
	return &Identity{priv: priv, pub: ed25519.PublicKey(pub)}, nil
}
