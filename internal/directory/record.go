package directory

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Source tags which response shape a record was decoded from.
type Source string

const (
	SourceModern Source = "modern"
	SourceLegacy Source = "legacy"
)

// Record is a directory entry normalized from either response shape.
// Name and Phone are empty when the payload omitted them.
type Record struct {
	ID           string
	Name         string
	Phone        string
	Active       bool
	Interview    bool
	Subscription bool
	Source       Source
}

type modernEntry struct {
	ID          flexString `json:"id"`
	Name        string     `json:"name"`
	UserName    string     `json:"userName"`
	Number      flexString `json:"number"`
	Phone       flexString `json:"phone"`
	Contact     flexString `json:"contact"`
	Active      flexBool   `json:"active"`
	Interview   flexBool   `json:"interview"`
	Suscription flexBool   `json:"suscription"`
}

type legacyEntry struct {
	JSON struct {
		UserName string     `json:"userName"`
		Name     string     `json:"name"`
		Phone    flexString `json:"phone"`
		Number   flexString `json:"number"`
	} `json:"json"`
}

// Decode detects the payload shape and normalizes it into records.
// An object with "numbers" or a bare array is the modern shape; an object
// with "phones" is the legacy shape.
func Decode(body []byte) ([]Record, Source, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, "", &FormatError{Reason: "empty body"}
	}

	if trimmed[0] == '[' {
		var entries []modernEntry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, "", &FormatError{Reason: err.Error()}
		}
		return fromModern(entries), SourceModern, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, "", &FormatError{Reason: err.Error()}
	}

	if raw, ok := envelope["numbers"]; ok {
		var entries []modernEntry
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, "", &FormatError{Reason: "numbers: " + err.Error()}
		}
		return fromModern(entries), SourceModern, nil
	}
	if raw, ok := envelope["phones"]; ok {
		var entries []legacyEntry
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, "", &FormatError{Reason: "phones: " + err.Error()}
		}
		return fromLegacy(entries), SourceLegacy, nil
	}

	return nil, "", &FormatError{Reason: "neither numbers nor phones present"}
}

func fromModern(entries []modernEntry) []Record {
	records := make([]Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, Record{
			ID:           string(e.ID),
			Name:         firstNonEmpty(e.Name, e.UserName),
			Phone:        firstNonEmpty(string(e.Number), string(e.Phone), string(e.Contact)),
			Active:       bool(e.Active),
			Interview:    bool(e.Interview),
			Subscription: bool(e.Suscription),
			Source:       SourceModern,
		})
	}
	return records
}

func fromLegacy(entries []legacyEntry) []Record {
	records := make([]Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, Record{
			Name:   firstNonEmpty(e.JSON.UserName, e.JSON.Name),
			Phone:  firstNonEmpty(string(e.JSON.Phone), string(e.JSON.Number)),
			Source: SourceLegacy,
		})
	}
	return records
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// flexString accepts a JSON string or number; the directory stores
// phone numbers both ways.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}

// flexBool accepts true/false, "true"/"false", "1"/"0" and numbers.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch s := strings.Trim(string(data), `"`); strings.ToLower(s) {
	case "true", "yes":
		*b = true
	case "false", "no", "", "null":
		*b = false
	default:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*b = f != 0
	}
	return nil
}
