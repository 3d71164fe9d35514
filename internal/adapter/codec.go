package adapter

import (
	"encoding/json"

	"github.com/gowebpki/jcs"
)

// JSON encodes ledger payloads and broker messages
//
//go:generate mockgen -source=codec.go -destination=../mocks/codec.go -package=mocks -mock_names=JSON=MockJSON,JCS=MockJCS
type JSON interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JCS canonicalizes JSON documents (RFC 8785) before they are hashed into the event chain
type JCS interface {
	Canonicalize(data []byte) ([]byte, error)
}

type stdJSON struct{}

// NewJSON returns the encoding/json backed codec
func NewJSON() JSON {
	return stdJSON{}
}

func (stdJSON) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (stdJSON) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

type webpkiJCS struct{}

// NewJCS returns a canonicalizer backed by gowebpki/jcs
func NewJCS() JCS {
	return webpkiJCS{}
}

func (webpkiJCS) Canonicalize(data []byte) ([]byte, error) {
	return jcs.Transform(data)
}
