package schools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/realmath/problempipeline/internal/models"
)

// Save writes schools as indented UTF-8 JSON. Hangul and other non-ASCII
// text is written as-is.
func Save(path string, schools []models.School) error {
	if schools == nil {
		schools = []models.School{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(schools); err != nil {
		return fmt.Errorf("failed to encode schools: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Load reads a file written by Save. Every entry must have a school name.
func Load(path string) ([]models.School, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var schools []models.School
	if err := json.Unmarshal(data, &schools); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	validate := validator.New()
	for i := range schools {
		if err := validate.Struct(schools[i]); err != nil {
			return nil, fmt.Errorf("invalid school at index %d: %w", i, err)
		}
	}
	return schools, nil
}

// Document converts a school into its Firestore form.
func Document(s models.School) models.SchoolDocument {
	return models.SchoolDocument{
		SchoolName:     s.SchoolName,
		SchoolNameOnly: StripRegionPrefix(s.SchoolName),
		Location:       s.Location,
	}
}
