package sections

import "github.com/Epistemic-Technology/pdf-sections-mcp/models"

// Validate checks every section against totalPages, in list order, and
// returns the first violation. It never mutates the list.
func Validate(list List, totalPages int) error {
	if len(list) == 0 {
		return ErrEmptySectionList
	}
	for _, s := range list {
		if err := CheckRange(s, totalPages); err != nil {
			return err
		}
	}
	return nil
}

// CheckRange validates a single section. A totalPages below 1 fails every range.
func CheckRange(s models.Section, totalPages int) error {
	if s.StartPage < 1 || s.StartPage > s.EndPage || s.EndPage > totalPages {
		return &InvalidRangeError{
			SectionID:   s.ID,
			SectionName: s.Name,
			Start:       s.StartPage,
			End:         s.EndPage,
			TotalPages:  totalPages,
		}
	}
	return nil
}
