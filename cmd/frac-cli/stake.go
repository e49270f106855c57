package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

func runStakeCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage())
		return 1
	}
	switch args[0] {
	case "create":
		if len(args) != 3 {
			fmt.Fprintln(stderr, "Usage: frac-cli stake create <amount> <lockDays>")
			return 1
		}
		lockDays, err := strconv.ParseUint(strings.TrimSpace(args[2]), 10, 64)
		if err != nil {
			fmt.Fprintln(stderr, "Error: invalid lock days")
			return 1
		}
		return runQuery("frac_createStake", map[string]interface{}{
			"amount":   strings.TrimSpace(args[1]),
			"lockDays": lockDays,
		}, stdout, stderr)
	case "claim":
		id, ok := parseID(args[1:], "Usage: frac-cli stake claim <id>", stderr)
		if !ok {
			return 1
		}
		return runQuery("frac_claimStakeRewards", map[string]interface{}{"id": id}, stdout, stderr)
	case "unstake":
		if len(args) < 2 || len(args) > 3 {
			fmt.Fprintln(stderr, "Usage: frac-cli stake unstake <id> [amount]")
			return 1
		}
		id, ok := parseID(args[1:2], "", stderr)
		if !ok {
			return 1
		}
		params := map[string]interface{}{"id": id}
		if len(args) == 3 {
			params["amount"] = strings.TrimSpace(args[2])
		}
		return runQuery("frac_unstake", params, stdout, stderr)
	case "list":
		if len(args) != 2 {
			fmt.Fprintln(stderr, "Usage: frac-cli stake list <address>")
			return 1
		}
		return runQuery("frac_getStakes", map[string]interface{}{"owner": strings.TrimSpace(args[1])}, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown stake command %q\n", args[0])
		return 1
	}
}

func runGrantCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage())
		return 1
	}
	switch args[0] {
	case "claim":
		id, ok := parseID(args[1:], "Usage: frac-cli grant claim <id>", stderr)
		if !ok {
			return 1
		}
		return runQuery("frac_claimReward", map[string]interface{}{"id": id}, stdout, stderr)
	case "list":
		if len(args) != 2 {
			fmt.Fprintln(stderr, "Usage: frac-cli grant list <address>")
			return 1
		}
		return runQuery("frac_getGrants", map[string]interface{}{"recipient": strings.TrimSpace(args[1])}, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown grant command %q\n", args[0])
		return 1
	}
}

func parseID(args []string, usageLine string, stderr io.Writer) (uint64, bool) {
	if len(args) != 1 {
		if usageLine != "" {
			fmt.Fprintln(stderr, usageLine)
		}
		return 0, false
	}
	id, err := strconv.ParseUint(strings.TrimSpace(args[0]), 10, 64)
	if err != nil || id == 0 {
		fmt.Fprintln(stderr, "Error: invalid id")
		return 0, false
	}
	return id, true
}
