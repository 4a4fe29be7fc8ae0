// internal/testutil/payloads.go

// Package testutil holds QR payload fixtures shared by package tests.
package testutil

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"

	"hcert-verifier/internal/models"
)

// SampleHcert is a Base64-encoded vaccination certificate.
const SampleHcert = "eyJ2ZXJzaW9uIjoiMi4wIiwiaWRUeXBlIjoiUlNBSUQiLCJpZE1hc2siOiI4ODAyMTAqKioqKio2IiwiZmlyc3ROYW1lIjoiQWRyaWFuIEpvaG4iLCJzdXJuYW1lIjoiRnJpdGgiLCJkYXRlT2ZCaXJ0aCI6IjEwLUZlYi0xOTg4IiwiaW1tdW5pemF0aW9uRXZlbnRzIjpbeyJ2YWNjaW5lUmVjZWl2ZWQiOiJDb21pcm5hdHkiLCJ2YWNjaW5lRGF0ZSI6IjIwLUF1Zy0yMDIxIn0seyJ2YWNjaW5lUmVjZWl2ZWQiOiJDb21pcm5hdHkiLCJ2YWNjaW5lRGF0ZSI6IjA0LU9jdC0yMDIxIn1dLCJleHBpcnlEYXRlIjoiMDMtTWFyLTIwMjIifQ=="

// SampleHash is the lowercase hex integrity hash of SamplePayload.
const SampleHash = "caed4092ce4cd4af205aa90653126b836ea94e2d2619fe7fb53ea71af24c11fa"

const SampleKid = "9e9e5863-b900-4f2f-b572-c48ee4ddee75cwtG6ZL54We1MmE"

// SamplePayload is a complete, correctly hashed QR payload.
const SamplePayload = `{"alg":"sha256","kid":"9e9e5863-b900-4f2f-b572-c48ee4ddee75cwtG6ZL54We1MmE","iss":"ZAF","iat":"2021-12-03T18:55:37.790","exp":"3M","hcert":"` + SampleHcert + `","hashalg":"sha256","hash":"` + SampleHash + `"}`

// SampleCertificate is the decoded form of SampleHcert.
const SampleCertificate = `{"version":"2.0","idType":"RSAID","idMask":"880210******6","firstName":"Adrian John","surname":"Frith","dateOfBirth":"10-Feb-1988","immunizationEvents":[{"vaccineReceived":"Comirnaty","vaccineDate":"20-Aug-2021"},{"vaccineReceived":"Comirnaty","vaccineDate":"04-Oct-2021"}],"expiryDate":"03-Mar-2022"}`

// SampleFields returns a fresh copy of SamplePayload's fields without the
// hash.
func SampleFields() map[string]any {
	return map[string]any{
		"alg":     "sha256",
		"kid":     SampleKid,
		"iss":     "ZAF",
		"iat":     "2021-12-03T18:55:37.790",
		"exp":     "3M",
		"hcert":   SampleHcert,
		"hashalg": "sha256",
	}
}

// BuildPayload sets "hash" to the correct integrity hash of fields and
// returns the JSON encoding. Fields that are missing or not strings are
// hashed as empty strings.
func BuildPayload(fields map[string]any) string {
	values := make([]string, len(models.RequiredFields))
	for i, k := range models.RequiredFields {
		values[i], _ = fields[k].(string)
	}
	sum := sha256.Sum256([]byte(strings.Join(values, "--")))

	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["hash"] = hex.EncodeToString(sum[:])

	data, err := json.Marshal(out)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// EncodeCertificate Base64-encodes a JSON document for use as hcert.
func EncodeCertificate(doc string) string {
	return base64.StdEncoding.EncodeToString([]byte(doc))
}
