// Package keys derives idempotency keys and human-readable references from
// business, agent, and request identifiers. All functions are pure: the same
// inputs always produce the same pair, which is what makes wallet operation
// retries safe.
package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Pair is what callers pass to wallet operations: the idempotency key and a
// reference that ends up in ledger entry metadata.
type Pair struct {
	Idem string
	Ref  string
}

// Strategy produces a key pair for an operation. Two implementations exist:
// NaturalKey for operations with an external request id, and PayloadHash as
// the deterministic fallback when no natural id is available.
type Strategy interface {
	Derive(op string, parts ...string) Pair
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9:_\-\.]`)

// Sanitize lower-cases an identifier and strips everything outside
// [a-z0-9:_-.], so derived keys are safe as document ids and log tokens.
func Sanitize(part string) string {
	s := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(part), " ", "-"))
	return unsafeChars.ReplaceAllString(s, "")
}

// NaturalKey joins sanitized identifier parts under an operation prefix.
type NaturalKey struct{}

// Derive builds "op:part1:part2:..." with every part sanitized.
func (NaturalKey) Derive(op string, parts ...string) Pair {
	clean := make([]string, 0, len(parts)+1)
	clean = append(clean, op)
	for _, p := range parts {
		clean = append(clean, Sanitize(p))
	}
	key := strings.Join(clean, ":")
	return Pair{Idem: key, Ref: key}
}

// PayloadHash derives a key from a SHA-256 over a sorted-JSON payload,
// truncated to hashLength hex characters. Used when no external request id
// exists, e.g. hold placement keyed by amount and client ref.
type PayloadHash struct{}

const hashLength = 24

// Derive treats parts as alternating field name/value pairs forming the
// hashed payload. A trailing unpaired part is hashed under an empty name.
func (PayloadHash) Derive(op string, parts ...string) Pair {
	payload := map[string]string{"op": op}
	for i := 0; i < len(parts); i += 2 {
		name := parts[i]
		value := ""
		if i+1 < len(parts) {
			value = parts[i+1]
		} else {
			name, value = "", parts[i]
		}
		payload[name] = value
	}
	return Pair{Idem: op + ":" + shortHash(payload), Ref: op + ":" + shortHash(payload)}
}

func shortHash(payload map[string]string) string {
	// encoding/json marshals map keys in sorted order, which keeps the hash
	// stable across processes.
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])[:hashLength]
}

// The builders below are the fixed derivations each wallet operation uses.

// ForInitZero keys the zero-amount account initialization for an agent.
func ForInitZero(businessID, agentID string) Pair {
	biz, ag := Sanitize(businessID), Sanitize(agentID)
	return Pair{
		Idem: fmt.Sprintf("init0:%s:%s", biz, ag),
		Ref:  fmt.Sprintf("account-init:%s:%s", biz, ag),
	}
}

// ForFunding keys a float credit. With a funding request id the key is
// natural; without one it falls back to a payload hash over the amount.
func ForFunding(businessID, agentID, fundingRequestID, amount string) Pair {
	biz, ag := Sanitize(businessID), Sanitize(agentID)
	if fundingRequestID != "" {
		req := Sanitize(fundingRequestID)
		return Pair{
			Idem: fmt.Sprintf("fund:%s:%s:%s", biz, ag, req),
			Ref:  fmt.Sprintf("funding:%s:%s:%s", biz, ag, req),
		}
	}
	h := shortHash(map[string]string{"op": "fund", "business_id": biz, "agent_id": ag, "amount": amount})
	return Pair{
		Idem: fmt.Sprintf("fund:%s:%s:%s", biz, ag, h),
		Ref:  fmt.Sprintf("funding:%s:%s:%s", biz, ag, h),
	}
}

// ForHold keys a hold placement. No dedicated request id exists for holds,
// so the amount and client ref feed a hash suffix.
func ForHold(businessID, agentID, clientRef, amount string) Pair {
	biz, ag, cref := Sanitize(businessID), Sanitize(agentID), Sanitize(clientRef)
	h := shortHash(map[string]string{"op": "hold", "biz": biz, "ag": ag, "ref": cref, "amt": amount})
	return Pair{
		Idem: fmt.Sprintf("hold:%s:%s:%s:%s", biz, ag, cref, h),
		Ref:  fmt.Sprintf("hold:%s:%s:%s", biz, ag, cref),
	}
}

// ForCapture keys a hold capture.
func ForCapture(businessID, holdID string) Pair {
	biz, hid := Sanitize(businessID), Sanitize(holdID)
	return Pair{
		Idem: fmt.Sprintf("cap:%s:%s", biz, hid),
		Ref:  fmt.Sprintf("capture:%s:%s", biz, hid),
	}
}

// ForRelease keys a hold release.
func ForRelease(businessID, holdID string) Pair {
	biz, hid := Sanitize(businessID), Sanitize(holdID)
	return Pair{
		Idem: fmt.Sprintf("rel:%s:%s", biz, hid),
		Ref:  fmt.Sprintf("release:%s:%s", biz, hid),
	}
}

// ForRefund keys a capture refund, optionally distinguished by reason.
func ForRefund(businessID, originalTxnID, reason string) Pair {
	biz, tx := Sanitize(businessID), Sanitize(originalTxnID)
	if reason != "" {
		r := Sanitize(reason)
		return Pair{
			Idem: fmt.Sprintf("refund:%s:%s:%s", biz, tx, r),
			Ref:  fmt.Sprintf("refund:%s:%s:%s", biz, tx, r),
		}
	}
	return Pair{
		Idem: fmt.Sprintf("refund:%s:%s", biz, tx),
		Ref:  fmt.Sprintf("refund:%s:%s", biz, tx),
	}
}

// ForTreasuryTopup keys an opening balance to treasury top-up.
func ForTreasuryTopup(businessID, topupID string) Pair {
	biz, tid := Sanitize(businessID), Sanitize(topupID)
	return Pair{
		Idem: fmt.Sprintf("topup:%s:%s", biz, tid),
		Ref:  fmt.Sprintf("treasury-topup:%s:%s", biz, tid),
	}
}

// ForTreasurySeed keys the one-time treasury seed. There is exactly one seed
// per business, so the business id alone is the natural key.
func ForTreasurySeed(businessID string) Pair {
	biz := Sanitize(businessID)
	return Pair{
		Idem: fmt.Sprintf("seed:%s", biz),
		Ref:  fmt.Sprintf("treasury-seed:%s", biz),
	}
}
