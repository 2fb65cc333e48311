package pipeline

import (
	"fmt"

	"github.com/ZanzyTHEbar/tender-integrity/internal/errors"
	"github.com/ZanzyTHEbar/tender-integrity/internal/types"
)

// Validate rejects tenders the pipeline cannot rank: a non-positive tender id
// or participant ids that are non-positive or repeated.
func Validate(tender types.Tender) error {
	problems := map[string]string{}
	if tender.ID <= 0 {
		problems["tender.id"] = fmt.Sprintf("must be positive, got %d", tender.ID)
	}

	seen := make(map[int64]int, len(tender.Participants))
	for i, p := range tender.Participants {
		field := fmt.Sprintf("participants[%d].id", i)
		if p.ID <= 0 {
			problems[field] = fmt.Sprintf("must be positive, got %d", p.ID)
			continue
		}
		if first, dup := seen[p.ID]; dup {
			problems[field] = fmt.Sprintf("duplicates participants[%d].id %d", first, p.ID)
			continue
		}
		seen[p.ID] = i
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.NewValidationErrorWithMap(problems)
}
