package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/losskeeper/internal/common"
)

// TempIDPrefix namespaces locally minted ids so they never collide with
// server-assigned ones.
const TempIDPrefix = "temp_"

// NewTempID mints temp_<unix-millis>_<7 base36 chars>.
func NewTempID(now time.Time) string {
	return fmt.Sprintf("%s%d_%s", TempIDPrefix, now.UnixMilli(), common.RandBase36(7))
}

func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}
