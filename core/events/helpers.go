package events

import (
	"strconv"

	"fracledger/crypto"
)

func formatAmount(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func formatAccount(addr [20]byte) string {
	return crypto.FormatAccount(addr)
}

func zeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}
