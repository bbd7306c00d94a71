package utils

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"

	"github.com/anjiri1684/safari_travel/models"
	"gorm.io/gorm"
)

const referenceLength = 8
const letterBytes = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateReference returns a short shareable booking reference. The
// alphabet drops 0/O/1/I to keep codes readable over the phone.
func GenerateReference() (string, error) {
	b := make([]byte, referenceLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(letterBytes))))
		if err != nil {
			return "", err
		}
		b[i] = letterBytes[n.Int64()]
	}
	return string(b), nil
}

// GenerateUniqueReference retries generation until the code is unused.
func GenerateUniqueReference(tx *gorm.DB) (string, error) {
	for {
		code, err := GenerateReference()
		if err != nil {
			return "", err
		}

		var booking models.Booking
		err = tx.Where("reference = ?", code).First(&booking).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return code, nil
			}
			return "", err
		}
	}
}

// GenerateTrackingToken returns the unguessable capability token that grants
// unauthenticated read access to a single booking. Independent of the
// reference code so sharing a reference never leaks access.
func GenerateTrackingToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
