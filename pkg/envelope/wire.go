// wire.go implements encoding and decoding of the Citadel ciphertext blob.
//
// Wire format:
//
//	+---------+-----------+------------+-------+---------------+
//	| version | suite_kem | suite_aead | flags | kem_ct_len(BE) |
//	| 1B      | 1B        | 1B         | 1B    | 2B             |
//	+---------+-----------+------------+-------+---------------+
//	| kem_ct[1120] | nonce[12] | aead_ct[>=16]                   |
//	+--------------+-----------+---------------------------------+
//
// The header is six bytes and every byte must equal its required value.
// Decoding is strict and single-pass: the whole header is checked in one
// comparison rather than branching field by field, so no intermediate
// validation state is observable.
package envelope

import (
	"encoding/binary"

	"github.com/citadel-sec/citadel/internal/constants"
	qerrors "github.com/citadel-sec/citadel/internal/errors"
)

// Blob is a decoded ciphertext blob: the fixed header plus the three
// variable-length wire sections.
type Blob struct {
	KEMCiphertext  []byte
	Nonce          []byte
	AEADCiphertext []byte
}

// Inspection reports the header fields of a blob without touching key
// material. Every field is a plain integer; nothing here is secret-dependent.
type Inspection struct {
	Version     byte
	SuiteKEM    byte
	SuiteAEAD   byte
	Flags       byte
	KEMCTLen    uint16
	TotalLength int
}

// EncodeBlob assembles a wire blob from its three body sections. The header
// is always the fixed constants.Header value.
func EncodeBlob(kemCiphertext, nonce, aeadCiphertext []byte) []byte {
	total := constants.HeaderSize + len(kemCiphertext) + len(nonce) + len(aeadCiphertext)
	buf := make([]byte, total)

	copy(buf[:constants.HeaderSize], constants.Header[:])
	offset := constants.HeaderSize
	copy(buf[offset:], kemCiphertext)
	offset += len(kemCiphertext)
	copy(buf[offset:], nonce)
	offset += len(nonce)
	copy(buf[offset:], aeadCiphertext)

	return buf
}

// DecodeBlob strictly validates the header and splits the body into its
// three sections. Any header mismatch, length mismatch, or under-length
// blob returns ErrMalformedHeader or ErrBlobTooShort; both are internal
// signals the envelope facade collapses into the single opaque open error
// before returning to a caller.
func DecodeBlob(data []byte) (*Blob, error) {
	if len(data) < constants.MinBlobSize {
		return nil, qerrors.ErrBlobTooShort
	}

	var header [constants.HeaderSize]byte
	copy(header[:], data[:constants.HeaderSize])
	if header != constants.Header {
		return nil, qerrors.ErrMalformedHeader
	}

	kemCTLen := binary.BigEndian.Uint16(data[4:6])
	if kemCTLen != constants.HybridCiphertextSize {
		return nil, qerrors.ErrMalformedHeader
	}

	expectedMin := constants.HeaderSize + int(kemCTLen) + constants.AESNonceSize + constants.MinAEADCiphertextSize
	if len(data) < expectedMin {
		return nil, qerrors.ErrBlobTooShort
	}

	offset := constants.HeaderSize
	kemCiphertext := data[offset : offset+int(kemCTLen)]
	offset += int(kemCTLen)
	nonce := data[offset : offset+constants.AESNonceSize]
	offset += constants.AESNonceSize
	aeadCiphertext := data[offset:]

	return &Blob{
		KEMCiphertext:  kemCiphertext,
		Nonce:          nonce,
		AEADCiphertext: aeadCiphertext,
	}, nil
}

// InspectBlob parses only the header and length fields, never attempting
// key derivation or AEAD processing. It still rejects a malformed header,
// since inspection of a structurally invalid blob carries no information a
// caller could safely act on.
func InspectBlob(data []byte) (*Inspection, error) {
	if len(data) < constants.HeaderSize {
		return nil, qerrors.ErrMalformedHeader
	}

	var header [constants.HeaderSize]byte
	copy(header[:], data[:constants.HeaderSize])
	if header != constants.Header {
		return nil, qerrors.ErrMalformedHeader
	}

	kemCTLen := binary.BigEndian.Uint16(data[4:6])
	if len(data) < constants.MinBlobSize {
		return nil, qerrors.ErrBlobTooShort
	}

	return &Inspection{
		Version:     header[0],
		SuiteKEM:    header[1],
		SuiteAEAD:   header[2],
		Flags:       header[3],
		KEMCTLen:    kemCTLen,
		TotalLength: len(data),
	}, nil
}
