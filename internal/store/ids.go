package store

import (
	"strings"

	"github.com/google/uuid"

	"github.com/vbonduro/bitacora/internal/domain"
)

// newRecordID issues identifiers shaped like the hosted store's ("rec" plus
// 14 characters) so both backends look the same to callers.
func newRecordID() string {
	return domain.RecordIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
}
