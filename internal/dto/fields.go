package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// clientToStorage maps the public form names to the column names of the
// registrations table.
var clientToStorage = map[string]string{
	"delegateType":       "delegate_type",
	"surname":            "surname",
	"firstName":          "first_name",
	"middleInitial":      "middle_initial",
	"institution":        "institution",
	"institutionAddress": "institution_address",
	"institutionContact": "institution_contact",
	"institutionEmail":   "institution_email",
	"regionCluster":      "region_cluster",
	"delegateContact":    "delegate_contact",
	"delegateEmail":      "delegate_email",
	"age":                "age",
	"tshirtSize":         "tshirt_size",
	"dietaryPreferences": "dietary_preferences",
	"dietaryComments":    "dietary_comments",
	"paymentOption":      "payment_option",
	"paymentProofUrl":    "payment_proof_url",
	"transactionRef":     "transaction_ref",
	"registrationId":     "registration_id",
	"status":             "status",
	"createdAt":          "created_at",
}

var storageToClient = func() map[string]string {
	m := make(map[string]string, len(clientToStorage))
	for k, v := range clientToStorage {
		m[v] = k
	}
	return m
}()

// StorageField resolves a client or storage field name to its column name.
func StorageField(name string) (string, bool) {
	if col, ok := clientToStorage[name]; ok {
		return col, true
	}
	if _, ok := storageToClient[name]; ok {
		return name, true
	}
	return "", false
}

// ClientField is the inverse of StorageField.
func ClientField(column string) (string, bool) {
	name, ok := storageToClient[column]
	return name, ok
}

// Text is a form value. Browsers and scripts send the same field as a string
// or a bare number, so both decode to the trimmed textual form; null decodes
// to empty.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
	case '{', '[':
		return fmt.Errorf("expected text, got %s", b[:1])
	default:
		// numbers and booleans keep their literal form
		*t = Text(b)
	}
	return nil
}

func (t Text) String() string {
	return string(t)
}

// Ptr returns nil for an empty value.
func (t Text) Ptr() *string {
	if t == "" {
		return nil
	}
	s := string(t)
	return &s
}
