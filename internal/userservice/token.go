package userservice

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"time"
)

func hashToken(token string) []byte {
	hash := sha256.Sum256([]byte(token))
	return hash[:]
}

// newSession returns a session with a 26 character base32 token. A ttl of 0
// leaves the expiry unset.
func newSession(username string, ttl time.Duration) (*Session, error) {
	randomBytes := make([]byte, 16)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return nil, err
	}

	session := &Session{
		Plain:    base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes),
		Username: username,
	}

	if ttl > 0 {
		session.Expiry = time.Now().Add(ttl)
	}

	session.Hash = hashToken(session.Plain)

	return session, nil
}
