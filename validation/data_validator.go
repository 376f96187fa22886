// Package validation provides catalog and input validation for the search service.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/giygas/lighthospital/entities"
	"github.com/giygas/lighthospital/interfaces"
)

// Pre-compiled regex patterns, compiled once at package initialization
var (
	// Input validation: letters of any script (Han included), digits and the
	// punctuation found in medicine names and specifications such as
	// "0.25g*24粒", "0.9%*250ml", "10mg/片" or "阿莫西林(阿莫仙)", in half
	// and full width
	inputRegex = regexp.MustCompile(`^[\p{L}\p{N}\s\-\.\+'\*·%/():,×％／（）：，．、【】\[\]]+$`)

	// Dangerous patterns as strings (faster than regex for simple substring matching)
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "onfocus=", "onblur=", "onchange=", "onsubmit=",
		"eval(", "expression(", "url(", "import ", "@import", "binding(", "behavior(",
		// SQL injection patterns
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"update set", "--", "/*", "*/", "xp_", "sp_", "exec(", "execute(",
		// Command injection patterns
		"; ", "| ", "& ", "`", "$(", "${",
		// Path traversal patterns
		"../", "..\\", "%2e%2e", "file://",
	}
)

const (
	maxInputRunes     = 50
	maxInputWords     = 6
	maxNameLength     = 200
	maxRepeatedRunes  = 10
	maxPlausibleStock = 1_000_000
)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ValidateMedicine checks if a medicine entity is valid
func (v *DataValidatorImpl) ValidateMedicine(m *entities.Medicine) error {
	if m == nil {
		return fmt.Errorf("medicine is nil")
	}

	if m.ID <= 0 {
		return fmt.Errorf("invalid medicine ID: %d", m.ID)
	}

	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("empty name for medicine %d", m.ID)
	}

	if utf8.RuneCountInString(m.Name) > maxNameLength {
		return fmt.Errorf("name too long for medicine %d: %d characters", m.ID, utf8.RuneCountInString(m.Name))
	}

	if m.Price < 0 {
		return fmt.Errorf("negative price for medicine %d: %.2f", m.ID, m.Price)
	}

	if m.Stock < 0 || m.Stock > maxPlausibleStock {
		return fmt.Errorf("implausible stock for medicine %d: %d", m.ID, m.Stock)
	}

	return nil
}

// ValidatePatient checks if a patient entity is valid
func (v *DataValidatorImpl) ValidatePatient(p *entities.Patient) error {
	if p == nil {
		return fmt.Errorf("patient is nil")
	}

	if p.ID <= 0 {
		return fmt.Errorf("invalid patient ID: %d", p.ID)
	}

	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("empty name for patient %d", p.ID)
	}

	if p.Age < 0 || p.Age > 150 {
		return fmt.Errorf("implausible age for patient %d: %d", p.ID, p.Age)
	}

	return nil
}

// ValidateCatalog rejects a snapshot with duplicate IDs or invalid records.
// An empty medicine list is rejected so a broken database never empties
// the autocomplete; an empty patient list is allowed.
func (v *DataValidatorImpl) ValidateCatalog(medicines []entities.Medicine, patients []entities.Patient) error {
	if len(medicines) == 0 {
		return fmt.Errorf("no medicines found")
	}

	ids := make(map[int64]bool, len(medicines))
	for i := range medicines {
		med := &medicines[i]
		if ids[med.ID] {
			return fmt.Errorf("duplicate medicine ID found: %d", med.ID)
		}
		ids[med.ID] = true

		if err := v.ValidateMedicine(med); err != nil {
			return fmt.Errorf("invalid medicine %d: %w", med.ID, err)
		}
	}

	patientIDs := make(map[int64]bool, len(patients))
	for i := range patients {
		p := &patients[i]
		if patientIDs[p.ID] {
			return fmt.Errorf("duplicate patient ID found: %d", p.ID)
		}
		patientIDs[p.ID] = true

		if err := v.ValidatePatient(p); err != nil {
			return fmt.Errorf("invalid patient %d: %w", p.ID, err)
		}
	}

	return nil
}

// ReportDataQuality lists the non-fatal issues of a snapshot
func (v *DataValidatorImpl) ReportDataQuality(medicines []entities.Medicine, patients []entities.Patient) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		DuplicateMedicineIDs: []int64{},
		DuplicatePatientIDs:  []int64{},
	}

	ids := make(map[int64]bool, len(medicines))
	for _, med := range medicines {
		if ids[med.ID] {
			report.DuplicateMedicineIDs = append(report.DuplicateMedicineIDs, med.ID)
		}
		ids[med.ID] = true

		if strings.TrimSpace(med.Name) == "" {
			report.MedicinesWithoutName++
		}
		if med.Price == 0 {
			report.MedicinesWithoutPrice++
		}
		if med.LowStock() {
			report.MedicinesLowStock++
		}
	}

	patientIDs := make(map[int64]bool, len(patients))
	for _, p := range patients {
		if patientIDs[p.ID] {
			report.DuplicatePatientIDs = append(report.DuplicatePatientIDs, p.ID)
		}
		patientIDs[p.ID] = true

		if strings.TrimSpace(p.Phone) == "" {
			report.PatientsWithoutPhone++
		}
	}

	return report
}

// ValidateInput validates a search term typed at the desk
func (v *DataValidatorImpl) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input cannot be empty")
	}

	if !utf8.ValidString(input) {
		return fmt.Errorf("input is not valid UTF-8")
	}

	if utf8.RuneCountInString(input) > maxInputRunes {
		return fmt.Errorf("input too long: maximum %d characters", maxInputRunes)
	}

	if len(strings.Fields(input)) > maxInputWords {
		return fmt.Errorf("search query too complex: maximum %d words allowed", maxInputWords)
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	if !inputRegex.MatchString(input) {
		return fmt.Errorf("input contains invalid characters. Only letters, numbers, spaces and specification punctuation are allowed")
	}

	if v.hasExcessiveRepetition(input) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// ValidateID validates a positive numeric record identifier
func (v *DataValidatorImpl) ValidateID(input string) (int64, error) {
	trimmedInput := strings.TrimSpace(input)
	if trimmedInput == "" {
		return -1, fmt.Errorf("input cannot be empty")
	}

	if len(input) != len(trimmedInput) {
		return -1, fmt.Errorf("input contains invalid characters. Only numeric characters are allowed")
	}

	if len(trimmedInput) > 18 {
		return -1, fmt.Errorf("ID too long")
	}

	id, err := strconv.ParseInt(trimmedInput, 10, 64)
	if err != nil || strings.HasPrefix(trimmedInput, "+") {
		return -1, fmt.Errorf("input contains invalid characters. Only numeric characters are allowed")
	}

	if id <= 0 {
		return -1, fmt.Errorf("ID must be positive")
	}

	return id, nil
}

// hasExcessiveRepetition reports the same rune repeated more than
// maxRepeatedRunes times in a row
func (v *DataValidatorImpl) hasExcessiveRepetition(input string) bool {
	var last rune
	run := 0
	for _, r := range input {
		if r == last {
			run++
			if run > maxRepeatedRunes {
				return true
			}
			continue
		}
		last = r
		run = 1
	}
	return false
}
