package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

// Stored credential layout: base64(nonce || tag || ciphertext). The tag sits
// between nonce and ciphertext so blobs stay interchangeable with the rest of
// the platform.
const (
	nonceSize = 12
	tagSize   = 16
)

func Encrypt(plaintext, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	aesGCM, err := cipher.NewGCMWithTagSize(block, tagSize)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	// Seal returns ciphertext||tag; reorder into nonce||tag||ciphertext.
	sealed := aesGCM.Seal(nil, nonce, plaintext, nil)
	ciphertext, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	finalData := make([]byte, 0, nonceSize+tagSize+len(ciphertext))
	finalData = append(finalData, nonce...)
	finalData = append(finalData, tag...)
	finalData = append(finalData, ciphertext...)

	return base64.StdEncoding.EncodeToString(finalData), nil
}

// Decrypt reverses Encrypt. The authentication tag is verified before any
// plaintext is returned; a tampered blob fails closed.
func Decrypt(encryptedData string, key []byte) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encryptedData)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aesGCM, err := cipher.NewGCMWithTagSize(block, tagSize)
	if err != nil {
		return nil, err
	}

	if len(data) < nonceSize+tagSize {
		return nil, errors.New("ciphertext too short")
	}
	nonce := data[:nonceSize]
	tag := data[nonceSize : nonceSize+tagSize]
	ciphertext := data[nonceSize+tagSize:]

	sealed := make([]byte, 0, len(ciphertext)+tagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aesGCM.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, err
	}

	return plaintext, nil
}
