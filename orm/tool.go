package orm

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Tool is a single inventory record. ID is zero until the row is created.
type Tool struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	Name       string `gorm:"not null"`
	Type       string `gorm:"not null"`
	PrimaryUse string `gorm:"column:primary_use;not null"`
}

func (Tool) TableName() string {
	return "tools"
}

// Persisted reports whether the tool has been assigned a database ID.
func (t *Tool) Persisted() bool {
	return t != nil && t.ID > 0
}

// Normalized returns a copy with every text field trimmed and in NFC form.
func (t Tool) Normalized() Tool {
	return Tool{
		ID:         t.ID,
		Name:       normalizeText(t.Name),
		Type:       normalizeText(t.Type),
		PrimaryUse: normalizeText(t.PrimaryUse),
	}
}

// Validate checks the required text fields. Surrounding whitespace does not count.
func (t Tool) Validate() error {
	var missing []string
	if normalizeText(t.Name) == "" {
		missing = append(missing, "name")
	}
	if normalizeText(t.Type) == "" {
		missing = append(missing, "type")
	}
	if normalizeText(t.PrimaryUse) == "" {
		missing = append(missing, "primary use")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing, Reason: "required"}
	}
	return nil
}

func normalizeText(s string) string {
	return nfc(strings.TrimSpace(s))
}

func nfc(s string) string {
	return norm.NFC.String(s)
}
