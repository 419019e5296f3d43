package chainops

import (
	"fmt"
	"regexp"
	"strconv"
)

// ParseFunc extracts a stage's produced fields from tool output.
//
// A parser returns an error when any declared field cannot be found; it
// never returns a partial mapping.
type ParseFunc func(output string) (map[string]any, error)

// Output line patterns printed by the standard deployment scripts.
var (
	tokenPattern   = regexp.MustCompile(`(?m)Token deployed to:\s*(0x[0-9a-fA-F]{40})`)
	proxyPattern   = regexp.MustCompile(`(?m)(?:DataLiquidityPool p|P)roxy deployed to:\s*(0x[0-9a-fA-F]{40})`)
	vestingPattern = regexp.MustCompile(`(?m)Vesting wallet deployed to:\s*(0x[0-9a-fA-F]{40})`)

	dlpIDPattern = regexp.MustCompile(`(?m)DLP registered with id:?\s*(\d+)`)

	encryptionKeyPattern = regexp.MustCompile(`(?m)Encryption key:\s*(0x[0-9a-fA-F]+)`)
	proofURLPattern      = regexp.MustCompile(`(?m)Proof artifact published at:\s*(\S+)`)

	refinerURLPattern = regexp.MustCompile(`(?m)Refiner published at:\s*(\S+)`)
)

func match(pattern *regexp.Regexp, output, what string) (string, error) {
	m := pattern.FindStringSubmatch(output)
	if m == nil {
		return "", fmt.Errorf("could not find %s in tool output", what)
	}
	return m[1], nil
}

// ParseContracts extracts the token, proxy, and vesting wallet addresses
// from the contract deployment output.
func ParseContracts(output string) (map[string]any, error) {
	token, err := match(tokenPattern, output, "token address")
	if err != nil {
		return nil, err
	}
	proxy, err := match(proxyPattern, output, "proxy address")
	if err != nil {
		return nil, err
	}
	vesting, err := match(vestingPattern, output, "vesting wallet address")
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"contractAddresses.token":   token,
		"contractAddresses.proxy":   proxy,
		"contractAddresses.vesting": vesting,
	}, nil
}

// ParseRegister extracts the registry id assigned to the pool.
func ParseRegister(output string) (map[string]any, error) {
	raw, err := match(dlpIDPattern, output, "registered DLP id")
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("registered DLP id %q is not a number", raw)
	}
	return map[string]any{"onChainId": id}, nil
}

// ParseProof extracts the pool encryption key and the published proof
// artifact URL.
func ParseProof(output string) (map[string]any, error) {
	key, err := match(encryptionKeyPattern, output, "encryption key")
	if err != nil {
		return nil, err
	}
	url, err := match(proofURLPattern, output, "proof artifact URL")
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"keys.encryptionKey": key,
		"keys.proofUrl":      url,
	}, nil
}

// ParseRefiner extracts the published refiner URL.
func ParseRefiner(output string) (map[string]any, error) {
	url, err := match(refinerURLPattern, output, "refiner URL")
	if err != nil {
		return nil, err
	}
	return map[string]any{"keys.refinerUrl": url}, nil
}

// ParseNone is the parser for stages that produce no record fields; the
// tool's exit status alone decides success.
func ParseNone(string) (map[string]any, error) {
	return map[string]any{}, nil
}
