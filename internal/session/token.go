// Package session resolves a usable authorization value from the artifacts a
// login leaves behind.
package session

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/fabrahaingo/CashCrawler/internal/bank"
)

// Token field names conventionally used by bank frontends, tried in order.
var tokenFieldNames = []string{
	"access_token",
	"accessToken",
	"token",
	"id_token",
	"idToken",
	"authToken",
	"jwt",
}

// Storage keys whose name alone suggests they hold an auth value.
var tokenKeyHints = []string{"token", "auth", "bearer", "jwt"}

// minHeuristicTokenLen filters out flags and short ids when matching on key
// name alone.
const minHeuristicTokenLen = 20

var bearerPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9._~+/-]+=*`)

// extractor is one attempt at producing an authorization value.
type extractor func(sess *bank.Session) (string, bool)

// ResolveAuthorization produces a bearer-style authorization header value for
// outbound API calls.
//
// The chain order is a contract, not an implementation detail:
//
//  1. a value observed on an in-flight request during login (authoritative);
//  2. a bearer-pattern substring anywhere in the stored session values;
//  3. a stored JSON object carrying one of the conventional token fields;
//  4. any stored value whose key name suggests a token and whose length
//     clears a minimum threshold.
//
// The first hit wins. When nothing matches, the empty string and false are
// returned; callers proceed without an authorization header and let the
// server reject downstream calls.
func ResolveAuthorization(sess *bank.Session) (string, bool) {
	if sess == nil {
		return "", false
	}
	chain := []extractor{
		fromObserved,
		fromBearerSubstring,
		fromJSONTokenField,
		fromKeyNameHeuristic,
	}
	for _, extract := range chain {
		if value, ok := extract(sess); ok {
			return asBearer(value), true
		}
	}
	return "", false
}

func fromObserved(sess *bank.Session) (string, bool) {
	v := strings.TrimSpace(sess.ObservedAuthorization)
	return v, v != ""
}

func fromBearerSubstring(sess *bank.Session) (string, bool) {
	for _, key := range sortedKeys(sess.Storage) {
		if match := bearerPattern.FindString(sess.Storage[key]); match != "" {
			return match, true
		}
	}
	return "", false
}

func fromJSONTokenField(sess *bank.Session) (string, bool) {
	for _, key := range sortedKeys(sess.Storage) {
		raw := strings.TrimSpace(sess.Storage[key])
		if !strings.HasPrefix(raw, "{") {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(raw), &obj); err != nil {
			continue
		}
		for _, field := range tokenFieldNames {
			if v, ok := obj[field].(string); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v), true
			}
		}
	}
	return "", false
}

func fromKeyNameHeuristic(sess *bank.Session) (string, bool) {
	for _, key := range sortedKeys(sess.Storage) {
		lower := strings.ToLower(key)
		for _, hint := range tokenKeyHints {
			if strings.Contains(lower, hint) && len(sess.Storage[key]) >= minHeuristicTokenLen {
				return sess.Storage[key], true
			}
		}
	}
	return "", false
}

// asBearer normalizes a raw token into a full header value. Values that
// already carry a scheme are passed through untouched.
func asBearer(value string) string {
	if strings.HasPrefix(value, "Bearer ") || strings.HasPrefix(value, "Basic ") {
		return value
	}
	return "Bearer " + value
}

// sortedKeys keeps the scan order deterministic across runs; map iteration
// order would make the chain's outcome depend on runtime state.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
