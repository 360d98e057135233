package messagequeue

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject. Unknown subjects pass validation.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	switch subject {
	case SubjectMessageCreated:
		var p MessageCreatedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		if p.ID == "" {
			return fmt.Errorf("schema validation failed for %s: %w", subject, errors.New("id is required"))
		}
	case SubjectContentImported:
		var p ContentImportedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		if p.Generation == "" {
			return fmt.Errorf("schema validation failed for %s: %w", subject, errors.New("generation is required"))
		}
	}
	return nil
}
