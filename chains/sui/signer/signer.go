package signer

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"github.com/ethereum/go-ethereum/common/hexutil"
	sol "github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
	"strings"
)

const (
	// ed25519Flag is the signature scheme flag of Ed25519 keys.
	ed25519Flag byte = 0x00
	// seedLength is the length of an Ed25519 private key seed.
	seedLength = ed25519.SeedSize
)

// transactionIntent is the intent prefix of transaction data: scope TransactionData, version V0, app id Sui.
var transactionIntent = []byte{0, 0, 0}

// Signer is an interface that defines methods for signing transactions and retrieving the signer's address.
type Signer interface {
	// Sign signs the given message and returns the raw Ed25519 signature.
	//
	// Parameters:
	// - data: the message to be signed.
	//
	// Returns:
	// - []byte: the signature.
	// - error: an error if the signing process fails.
	Sign(data []byte) ([]byte, error)

	// SignTransaction signs BCS transaction data with the transaction intent.
	//
	// Parameters:
	// - txBytes: the BCS encoded TransactionData.
	//
	// Returns:
	// - string: the base64 serialized signature (flag || signature || public key).
	// - error: an error if the signing process fails.
	SignTransaction(txBytes []byte) (string, error)

	// PublicKey returns the Ed25519 public key.
	PublicKey() []byte

	// Address returns the signer's address.
	//
	// Returns:
	// - string: the 0x-prefixed, 64 hex digit address.
	Address() string
}

// signer is a concrete implementation of the Signer interface.
type signer struct {
	privateKey sol.PrivateKey
	publicKey  sol.PublicKey
	address    string
}

// NewSigner creates a new signer from an encoded private key.
//
// Accepted encodings are the base64 keystore form (flag byte followed by the 32 byte seed),
// a hex encoded 32 byte seed and a hex encoded 64 byte Ed25519 private key.
//
// Parameters:
// - encoded: the encoded private key.
//
// Returns:
// - Signer: a new signer instance.
// - error: an error if the key cannot be decoded.
func NewSigner(encoded string) (Signer, error) {
	seed, err := decodeSeed(strings.TrimSpace(encoded))
	if err != nil {
		return nil, err
	}
	return NewSignerFromSeed(seed)
}

// NewSignerFromSeed creates a new signer from a 32 byte Ed25519 seed.
func NewSignerFromSeed(seed []byte) (Signer, error) {
	if len(seed) != seedLength {
		return nil, errors.Errorf("invalid seed length %d", len(seed))
	}
	privateKey := sol.PrivateKey(ed25519.NewKeyFromSeed(seed))
	publicKey := privateKey.PublicKey()

	return &signer{
		privateKey: privateKey,
		publicKey:  publicKey,
		address:    AddressFromPublicKey(publicKey[:]),
	}, nil
}

// AddressFromPublicKey derives the address of an Ed25519 public key: blake2b256(flag || public key).
func AddressFromPublicKey(publicKey []byte) string {
	hash := blake2b.Sum256(append([]byte{ed25519Flag}, publicKey...))
	return hexutil.Encode(hash[:])
}

// Sign signs the given message and returns the raw Ed25519 signature.
func (s *signer) Sign(data []byte) ([]byte, error) {
	signature, err := s.privateKey.Sign(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign message")
	}
	return signature[:], nil
}

// SignTransaction signs blake2b256(intent || txBytes) and serializes the signature.
func (s *signer) SignTransaction(txBytes []byte) (string, error) {
	digest := blake2b.Sum256(append(append([]byte{}, transactionIntent...), txBytes...))

	signature, err := s.Sign(digest[:])
	if err != nil {
		return "", errors.Wrap(err, "failed to sign transaction")
	}

	serialized := make([]byte, 0, 1+len(signature)+len(s.publicKey))
	serialized = append(serialized, ed25519Flag)
	serialized = append(serialized, signature...)
	serialized = append(serialized, s.publicKey[:]...)
	return base64.StdEncoding.EncodeToString(serialized), nil
}

// PublicKey returns the Ed25519 public key.
func (s *signer) PublicKey() []byte {
	return append([]byte{}, s.publicKey[:]...)
}

// Address returns the signer's address.
func (s *signer) Address() string {
	return s.address
}

func decodeSeed(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, errors.New("empty private key")
	}

	hexKey := strings.TrimPrefix(encoded, "0x")
	if raw, err := hex.DecodeString(hexKey); err == nil {
		switch len(raw) {
		case seedLength:
			return raw, nil
		case ed25519.PrivateKeySize:
			return raw[:seedLength], nil
		}
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.Wrap(err, "private key is neither hex nor base64")
	}
	switch {
	case len(raw) == seedLength+1 && raw[0] == ed25519Flag:
		return raw[1:], nil
	case len(raw) == seedLength+1:
		return nil, errors.Errorf("unsupported key scheme flag %d", raw[0])
	case len(raw) == seedLength:
		return raw, nil
	default:
		return nil, errors.Errorf("invalid private key length %d", len(raw))
	}
}
