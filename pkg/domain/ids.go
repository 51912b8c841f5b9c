package domain

import (
	"strconv"
	"strings"
	"unicode"

	dErrors "boxoffice/pkg/domain-errors"
)

// ShowID identifies a show. Ids are allocated from 1 upward and never reused.
type ShowID uint64

// PassID identifies an issued pass. Allocation follows the same rule as ShowID.
type PassID uint64

// AccountID is a principal: a show host, a pass holder or a ledger account
// such as the insurance vault.
type AccountID string

// Amount is a value in the ledger's smallest unit.
type Amount uint64

// Timestamp is a logical time (block height equivalent). It never decreases.
type Timestamp uint64

const maxAccountIDLength = 128

func (id ShowID) String() string { return strconv.FormatUint(uint64(id), 10) }
func (id PassID) String() string { return strconv.FormatUint(uint64(id), 10) }
func (id AccountID) String() string {
	return string(id)
}

// IsNil reports whether the id was never allocated.
func (id ShowID) IsNil() bool { return id == 0 }

// IsNil reports whether the id was never allocated.
func (id PassID) IsNil() bool { return id == 0 }

// IsNil reports whether the account is empty.
func (id AccountID) IsNil() bool { return id == "" }

// ParseShowID parses a decimal show id. Zero is rejected.
func ParseShowID(s string) (ShowID, error) {
	n, err := parseSequenceID(s, "show")
	return ShowID(n), err
}

// ParsePassID parses a decimal pass id. Zero is rejected.
func ParsePassID(s string) (PassID, error) {
	n, err := parseSequenceID(s, "pass")
	return PassID(n), err
}

func parseSequenceID(s, kind string) (uint64, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeBadRequest, kind+" id is required")
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid "+kind+" id")
	}
	if n == 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid "+kind+" id")
	}
	return n, nil
}

// ParseAccountID validates a principal at a trust boundary: non-empty, at
// most 128 bytes, printable and free of whitespace.
func ParseAccountID(s string) (AccountID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "account id is required")
	}
	if len(s) > maxAccountIDLength {
		return "", dErrors.New(dErrors.CodeBadRequest, "account id is too long")
	}
	if strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || !unicode.IsPrint(r)
	}) >= 0 {
		return "", dErrors.New(dErrors.CodeBadRequest, "account id contains invalid characters")
	}
	return AccountID(s), nil
}

// ParseAmount parses a non-negative decimal amount.
func ParseAmount(s string) (Amount, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid amount")
	}
	return Amount(n), nil
}
