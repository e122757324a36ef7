// Package idgenerator contains the default [domain.IDGenerator]
// implementation, built from random UUIDs.
package idgenerator

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/vinicius-lino-figueiredo/godm/domain"
)

// IDGenerator implements [domain.IDGenerator].
type IDGenerator struct {
	reader io.Reader
}

// NewIDGenerator implements [domain.IDGenerator].
func NewIDGenerator(opts ...Option) domain.IDGenerator {
	i := IDGenerator{
		reader: rand.Reader,
	}
	for _, opt := range opts {
		opt(&i)
	}
	return &i
}

// GenerateID implements [domain.IDGenerator]. The result is the hex form of
// as many version 4 UUIDs as needed, cut to l characters.
func (i *IDGenerator) GenerateID(l int) (string, error) {
	var sb strings.Builder
	sb.Grow(l + 32)
	for sb.Len() < l {
		u, err := uuid.NewRandomFromReader(i.reader)
		if err != nil {
			return "", err
		}
		sb.WriteString(hex.EncodeToString(u[:]))
	}
	return sb.String()[:l], nil
}
