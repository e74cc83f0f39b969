package decoder

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/ClipFinance/quest-lib/common/ptb"
)

// NormalizeStructType rewrites the package address of a struct tag ("0x2::m::S") in its long form.
func NormalizeStructType(tag string) (string, error) {
	parts := strings.SplitN(tag, "::", 3)
	if len(parts) != 3 {
		return "", errors.Errorf("invalid struct tag %q", tag)
	}
	addr, err := ptb.NormalizeAddress(parts[0])
	if err != nil {
		return "", errors.Wrapf(err, "invalid struct tag %q", tag)
	}
	return addr + "::" + parts[1] + "::" + parts[2], nil
}
