package exports

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"

	"fracledger/crypto"
	"fracledger/native/rewards"
)

// GrantsJSONL builds a JSON Lines statement for the supplied grants and
// returns the serialised payload alongside a checksum.
func GrantsJSONL(grants []*rewards.Grant, now uint64) ([]byte, string, error) {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	for _, grant := range grants {
		if grant == nil {
			continue
		}
		claimable, err := rewards.ClaimableAt(grant, now)
		if err != nil {
			return nil, "", err
		}
		payload := map[string]interface{}{
			"id":               grant.ID,
			"recipient":        crypto.FormatAccount(grant.Recipient),
			"category":         grant.Category.String(),
			"policy":           grant.Policy.String(),
			"status":           grant.Status.String(),
			"total":            strconv.FormatUint(grant.TotalAmount, 10),
			"claimed":          strconv.FormatUint(grant.Claimed, 10),
			"claimable":        strconv.FormatUint(claimable, 10),
			"grant_time":       grant.GrantTime,
			"vesting_duration": grant.VestingDuration,
			"milestone_stage":  grant.MilestoneStage,
		}
		if err := encoder.Encode(payload); err != nil {
			return nil, "", err
		}
	}
	data := buffer.Bytes()
	checksum := sha256.Sum256(data)
	return data, hex.EncodeToString(checksum[:]), nil
}
