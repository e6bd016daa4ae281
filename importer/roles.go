package importer

import (
	"strings"

	"github.com/Dosada05/tournament-registration/models"
)

// roleAliases - словарь локализованных названий ролей (EN/RU/VI).
var roleAliases = map[string]models.TeamRole{
	"team manager":    models.RoleTeamManager,
	"manager":         models.RoleTeamManager,
	"менеджер":        models.RoleTeamManager,
	"руководитель":    models.RoleTeamManager,
	"представитель":   models.RoleTeamManager,
	"quản lý":         models.RoleTeamManager,
	"trưởng đoàn":     models.RoleTeamManager,
	"coach":           models.RoleCoach,
	"тренер":          models.RoleCoach,
	"huấn luyện viên": models.RoleCoach,
	"hlv":             models.RoleCoach,
	"athlete":         models.RoleAthlete,
	"player":          models.RoleAthlete,
	"спортсмен":       models.RoleAthlete,
	"игрок":           models.RoleAthlete,
	"участник":        models.RoleAthlete,
	"vận động viên":   models.RoleAthlete,
	"vđv":             models.RoleAthlete,
}

// NormalizeRole maps a localized role name to a canonical role. Unknown values
// are returned unchanged so the role check can report them.
func NormalizeRole(raw string) models.TeamRole {
	key := foldKey(raw)
	if role, ok := roleAliases[key]; ok {
		return role
	}
	return models.TeamRole(strings.TrimSpace(raw))
}
