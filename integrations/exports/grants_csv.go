package exports

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"strconv"

	"fracledger/crypto"
	"fracledger/native/rewards"
)

var grantHeader = []string{"id", "recipient", "category", "policy", "status", "total", "claimed", "claimable", "grant_time", "vesting_duration", "milestone_stage"}

// GrantsCSV builds a CSV statement for the supplied grants and returns the
// serialised data alongside a SHA-256 checksum of the payload. Claimable
// amounts are evaluated at now.
func GrantsCSV(grants []*rewards.Grant, now uint64) ([]byte, string, error) {
	buffer := &bytes.Buffer{}
	writer := csv.NewWriter(buffer)
	if err := writer.Write(grantHeader); err != nil {
		return nil, "", err
	}
	for _, grant := range grants {
		if grant == nil {
			continue
		}
		claimable, err := rewards.ClaimableAt(grant, now)
		if err != nil {
			return nil, "", err
		}
		record := []string{
			strconv.FormatUint(grant.ID, 10),
			crypto.FormatAccount(grant.Recipient),
			grant.Category.String(),
			grant.Policy.String(),
			grant.Status.String(),
			strconv.FormatUint(grant.TotalAmount, 10),
			strconv.FormatUint(grant.Claimed, 10),
			strconv.FormatUint(claimable, 10),
			strconv.FormatUint(grant.GrantTime, 10),
			strconv.FormatUint(grant.VestingDuration, 10),
			strconv.FormatUint(uint64(grant.MilestoneStage), 10),
		}
		if err := writer.Write(record); err != nil {
			return nil, "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}
	data := buffer.Bytes()
	checksum := sha256.Sum256(data)
	return data, hex.EncodeToString(checksum[:]), nil
}
