package utils

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"
)

const (
	// AuthTokenBytes is the amount of randomness in a session token.
	AuthTokenBytes = 32
	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes = 72
	// MaxPage bounds the page query value so the computed skip cannot overflow.
	MaxPage = 1 << 20
)

// ErrPasswordTooLong is returned by HashPassword for passwords over
// MaxPasswordBytes. Binding counts characters, so multibyte input can pass
// validation and still land here.
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

func HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPassword(hash string, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// GenerateAuthToken returns a fresh opaque session token, hex encoded.
func GenerateAuthToken() (string, error) {
	buf := make([]byte, AuthTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 || e.Code == 11001 {
				return true
			}
		}
	}

	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, e := range bwe.WriteErrors {
			if e.Code == 11000 || e.Code == 11001 {
				return true
			}
		}
	}

	return strings.Contains(err.Error(), "E11000 duplicate key error")
}

// NormalizeDeviceName trims the name, composes it to NFC and drops control
// characters, so the same station always groups under one key.
func NormalizeDeviceName(name string) string {
	t := norm.NFC.String(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range t {
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func ParseIntDefault(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// ParseTimeQuery parses an RFC 3339 query value. An empty value yields nil.
func ParseTimeQuery(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}

type QueryLimits struct {
	Max     int
	Default int
}

// Page clamps the raw page/limit query values.
func (l QueryLimits) Page(pageRaw, limitRaw string) (page, limit int) {
	page = ParseIntDefault(pageRaw, 1)
	limit = ParseIntDefault(limitRaw, l.Default)
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = l.Default
	}
	if limit > l.Max {
		limit = l.Max
	}
	return page, limit
}
