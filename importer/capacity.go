package importer

import (
	"fmt"

	"github.com/Dosada05/tournament-registration/models"
)

// FieldCapacity is the field of the file-level capacity error.
const FieldCapacity = "capacity"

// CheckCapacity compares the incoming batch size against the free slots of the
// content. A nil MaxEntries means the content is unlimited.
func CheckCapacity(content *models.TournamentContent, occupancy, incoming int) (models.CapacityInfo, *models.ValidationError) {
	info := models.CapacityInfo{
		MaxEntries:     content.MaxEntries,
		CurrentEntries: occupancy,
	}
	if content.MaxEntries == nil {
		return info, nil
	}

	remaining := *content.MaxEntries - occupancy
	if remaining < 0 {
		remaining = 0
	}
	info.RemainingSlots = &remaining

	if incoming > remaining {
		return info, &models.ValidationError{
			Row:     0,
			Field:   FieldCapacity,
			Message: fmt.Sprintf("only %d slots available, but the import contains %d entries", remaining, incoming),
			Value:   fmt.Sprintf("%d", incoming),
		}
	}
	return info, nil
}
