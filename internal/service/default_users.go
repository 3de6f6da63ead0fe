package service

import "github.com/noah-isme/campuspass-api/internal/models"

const defaultPassword = "password123"

var defaultRoster = []struct {
	fullName      string
	studentNumber string
	role          models.UserRole
}{
	{"Arellano, Marcuz Gian M.", "12526MN-000001", models.RoleStudent},
	{"Boloron, Jesam P.", "12526MN-000263", models.RoleStudent},
	{"Cariño, Miguel Joey L.", "12526MN-000708", models.RoleAdmin},
	{"Gallares, Elisha Denzelle R.", "12526MN-000387", models.RoleAdmin},
	{"Puno, Reuben James B.", "12526MN-000307", models.RoleStudent},
	{"Quimson, Reign Jewel M.", "12526MN-000308", models.RoleAdmin},
	{"Regaspi, Lemuel V.", "12526MN-000309", models.RoleStudent},
	{"Romasame, James Benedict D.", "12526MN-000310", models.RoleAdmin},
	{"Romasanta, Keith Gabriel", "12526MN-000311", models.RoleStudent},
	{"Romero, Michael Lawrence B.", "12526MN-000312", models.RoleStudent},
	{"Roque, Christian Drew D.", "12526MN-000313", models.RoleStudent},
	{"Salilin, Christian James T.", "12526MN-000314", models.RoleStudent},
	{"San Juan, Lance Chezter C.", "12526MN-000315", models.RoleStudent},
	{"Sardon, Jury Maine T.", "12526MN-000316", models.RoleAdmin},
	{"Sayo, John Errol M.", "12526MN-000317", models.RoleStudent},
	{"Servidad, Antoio Joaquin A.", "12526MN-000318", models.RoleStudent},
	{"Simon, Emman Noel C.", "12526MN-000319", models.RoleStudent},
	{"Soreda, Joseph Benedict M.", "12526MN-000320", models.RoleStudent},
	{"Taboada, Earl Vince Nelson T.", "12526MN-000321", models.RoleAdmin},
	{"Tachado, Cydnar C.", "12526MN-000322", models.RoleStudent},
	{"Tan, Muhammad-Farouk II P.", "136889120764", models.RoleStudent},
	{"Tenorio, Dwaine Joshua D.", "12526MN-000324", models.RoleAdmin},
	{"Torres, Tristan Geoff S.", "12526MN-000326", models.RoleStudent},
	{"Tuddao, Mark Paul Angelo B.", "12526MN-000331", models.RoleStudent},
	{"Tugna, Jaymar T.", "12526MN-000327", models.RoleStudent},
	{"Villanueva, Joffer F.", "12526MN-000328", models.RoleStudent},
	{"Yangco, Francesca Andrea T.", "12526MN-000329", models.RoleStudent},
	{"Yap, Mary Abigail D.", "103520120022", models.RoleStudent},
}

// DefaultUsers returns a fresh copy of the first-run roster.
func DefaultUsers() []models.User {
	users := make([]models.User, 0, len(defaultRoster))
	for _, entry := range defaultRoster {
		users = append(users, models.User{
			StudentNumber: entry.studentNumber,
			PasswordHash:  defaultPassword,
			FullName:      entry.fullName,
			Role:          entry.role,
		})
	}
	return users
}
