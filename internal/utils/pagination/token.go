package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// EncodeMultiFieldToken creates a token with any number of string fields
// This provides flexibility for different pagination strategies
func EncodeMultiFieldToken(fields ...string) string {
	tokenStr := strings.Join(fields, "|")
	return base64.StdEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeMultiFieldToken decodes a token into its component fields
func DecodeMultiFieldToken(token string) ([]string, error) {
	decodedBytes, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}

	tokenStr := string(decodedBytes)
	parts := strings.Split(tokenStr, "|")
	return parts, nil
}

// EncodeLedgerToken points at the ledger position the next page starts from.
// The entry ID at that position is carried so a stale token can be detected.
func EncodeLedgerToken(position int, entryID string) string {
	return EncodeMultiFieldToken(strconv.Itoa(position), entryID)
}

// DecodeLedgerToken parses a token produced by EncodeLedgerToken.
func DecodeLedgerToken(token string) (int, string, error) {
	parts, err := DecodeMultiFieldToken(token)
	if err != nil {
		return 0, "", err
	}
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("invalid pagination token format (split)")
	}
	position, err := strconv.Atoi(parts[0])
	if err != nil || position < 0 {
		return 0, "", fmt.Errorf("invalid pagination token format (position %q)", parts[0])
	}
	return position, parts[1], nil
}
