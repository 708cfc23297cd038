package schema

import "strings"

// fieldAliases maps a canonical field name to the legacy names it is read from,
// in priority order. The canonical name itself always wins.
type fieldAliases map[string][]string

func (f fieldAliases) names(canonical string) []string {
	return append([]string{canonical}, f[canonical]...)
}

// known reports whether key is a canonical field or one of its aliases.
func (f fieldAliases) known(key string) bool {
	for canonical, alts := range f {
		if key == canonical || contains(alts, key) {
			return true
		}
	}
	return false
}

var createdAliases = []string{"date", "dateCreation", "created_at", "created", "creeLe"}
var updatedAliases = []string{"dateModification", "updated_at", "modifieLe", "lastModified"}

var aliases = map[Kind]fieldAliases{
	KindUser: {
		"id":        {"uid", "userId", "_id"},
		"firstName": {"prenom", "prénom", "first_name", "firstname", "givenName"},
		"lastName":  {"nom", "last_name", "lastname", "familyName"},
		"email":     {"mail", "courriel", "emailAddress", "adresseEmail"},
		"role":      {"type", "userType", "profil"},
		"createdAt": append([]string{"dateInscription"}, createdAliases...),
		"updatedAt": updatedAliases,
		"avatar":    {"photo", "photoURL", "photoUrl", "image", "picture"},
	},
	KindCourse: {
		"id":           {"uid", "_id", "courseId"},
		"title":        {"titre", "name", "nom", "intitule"},
		"description":  {"desc", "resume", "résumé"},
		"content":      {"contenu"},
		"duration":     {"duree", "durée"},
		"image":        {"imageUrl", "imageURL", "photo", "thumbnail", "cover"},
		"instructorId": {"formateur", "formateurId", "instructeur", "instructeurId", "instructor", "teacherId", "auteur", "authorId"},
		"category":     {"categorie", "catégorie", "domaine"},
		"level":        {"niveau", "difficulty", "difficulte"},
		"price":        {"prix", "tarif"},
		"rating":       {"note", "moyenne"},
		"totalRatings": {"nombreNotes", "nbAvis", "ratingsCount"},
		"createdAt":    createdAliases,
		"updatedAt":    updatedAliases,
		"modules":      {"chapitres"},
	},
	KindModule: {
		"id":          {"uid", "_id", "moduleId"},
		"courseId":    {"formation", "formationId", "course", "cours", "coursId"},
		"title":       {"titre", "name", "nom"},
		"description": {"desc", "resume"},
		"order":       {"ordre", "position", "index", "rang"},
		"content":     {"contenu"},
		"duration":    {"duree", "durée"},
		"resources":   {"ressources", "materials", "supports"},
		"createdAt":   createdAliases,
		"updatedAt":   updatedAliases,
	},
	KindEvaluation: {
		"id":           {"uid", "_id", "evaluationId"},
		"moduleId":     {"module", "moduleID", "chapitre"},
		"title":        {"titre", "name", "nom"},
		"type":         {"kind", "genre"},
		"description":  {"desc", "consigne"},
		"questions":    {"qcm", "items"},
		"maxScore":     {"noteMax", "scoreMax", "bareme", "totalPoints"},
		"passingScore": {"noteMinimale", "seuil", "scoreMin", "passMark"},
		"createdAt":    createdAliases,
		"updatedAt":    updatedAliases,
	},
	KindEnrollment: {
		"userId":     {"apprenant", "etudiant", "étudiant", "student", "studentId", "user", "uid", "utilisateur"},
		"courseId":   {"formation", "formationId", "course", "cours", "coursId"},
		"enrolledAt": {"dateInscription", "date", "createdAt", "inscritLe"},
		"status":     {"statut", "etat", "état"},
	},
	KindProgress: {
		"userId":      {"apprenant", "etudiant", "uid", "user", "utilisateur"},
		"courseId":    {"formation", "course", "cours"},
		"startDate":   {"dateDebut", "debut", "startedAt"},
		"progress":    {"progression", "pourcentage", "percent", "percentage"},
		"completed":   {"termine", "terminé", "complete", "isCompleted"},
		"lastUpdated": {"derniereMiseAJour", "updatedAt", "lastAccess"},
		"score":       {"moyenne", "note"},
		"modules":     nil,
		"details":     nil,
	},
	KindFeedback: {
		"id":        {"uid", "_id"},
		"userId":    {"apprenant", "utilisateur", "user", "auteur", "author"},
		"courseId":  {"formation", "course", "cours"},
		"rating":    {"note", "stars", "etoiles"},
		"comment":   {"commentaire", "avis", "message", "texte"},
		"createdAt": createdAliases,
	},
}

var moduleProgressAliases = fieldAliases{
	"moduleId":    {"module", "id"},
	"completed":   {"termine", "terminé", "complete", "done", "fini"},
	"score":       {"best", "meilleurScore", "note"},
	"lastUpdated": {"date", "updatedAt", "derniereMiseAJour"},
}

var resourceAliases = fieldAliases{
	"title": {"titre", "nom", "name"},
	"type":  {"kind", "format"},
	"url":   {"lien", "href", "link", "src"},
}

// Aliases returns the legacy names accepted for each canonical field of kind.
func Aliases(kind Kind) map[string][]string {
	out := make(map[string][]string, len(aliases[kind]))
	for canonical, alts := range aliases[kind] {
		out[canonical] = append([]string(nil), alts...)
	}
	return out
}

// IsProgressScalar reports whether key of a progress node is a scalar field (canonical or alias).
// Every other object-valued key of a legacy progress node is a flattened module entry.
func IsProgressScalar(key string) bool {
	return key == "id" || aliases[KindProgress].known(key)
}

var enumValues = map[string]map[string]string{
	"role": {
		"student": RoleStudent, "etudiant": RoleStudent, "étudiant": RoleStudent, "apprenant": RoleStudent,
		"learner": RoleStudent, "eleve": RoleStudent, "élève": RoleStudent,
		"instructor": RoleInstructor, "formateur": RoleInstructor, "formatrice": RoleInstructor,
		"instructeur": RoleInstructor, "enseignant": RoleInstructor, "teacher": RoleInstructor, "professeur": RoleInstructor,
		"admin": RoleAdmin, "administrateur": RoleAdmin, "administratrice": RoleAdmin, "administrator": RoleAdmin,
	},
	"level": {
		"beginner": LevelBeginner, "debutant": LevelBeginner, "débutant": LevelBeginner, "facile": LevelBeginner,
		"intermediate": LevelIntermediate, "intermediaire": LevelIntermediate, "intermédiaire": LevelIntermediate, "moyen": LevelIntermediate,
		"advanced": LevelAdvanced, "avance": LevelAdvanced, "avancé": LevelAdvanced, "expert": LevelAdvanced,
	},
	"evaluationType": {
		"quiz": EvaluationQuiz, "qcm": EvaluationQuiz, "questionnaire": EvaluationQuiz, "test": EvaluationQuiz,
		"assignment": EvaluationAssignment, "devoir": EvaluationAssignment, "exercice": EvaluationAssignment, "projet": EvaluationAssignment,
	},
	"status": {
		"active": StatusActive, "actif": StatusActive, "en cours": StatusActive, "in progress": StatusActive,
		"completed": StatusCompleted, "termine": StatusCompleted, "terminé": StatusCompleted, "complete": StatusCompleted, "fini": StatusCompleted,
		"paused": StatusPaused, "pause": StatusPaused, "en pause": StatusPaused, "suspendu": StatusPaused,
	},
	"resourceType": {
		"video": ResourceVideo, "vidéo": ResourceVideo, "youtube": ResourceVideo,
		"pdf": ResourcePDF, "document": ResourcePDF,
		"link": ResourceLink, "lien": ResourceLink, "url": ResourceLink, "article": ResourceLink,
	},
}

// enum maps a legacy enum value onto its canonical form. Unknown values are
// lowercased and kept so the validator can report them; empty values get def.
func enum(table, value, def string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return def
	}
	if canonical, ok := enumValues[table][v]; ok {
		return canonical
	}
	return v
}

// HasField reports whether rec carries the canonical field of kind, under its
// canonical name or one of its aliases.
func HasField(kind Kind, rec Record, canonical string) bool {
	names := []string{canonical}
	if table, ok := aliases[kind]; ok {
		names = table.names(canonical)
	}
	for _, name := range names {
		if rec[name] != nil {
			return true
		}
	}
	return false
}

// ModuleProgressDated reports whether a legacy module progress entry carries its own timestamp.
func ModuleProgressDated(v any) bool {
	entry, ok := v.(map[string]any)
	if !ok {
		return false
	}
	for _, name := range moduleProgressAliases.names("lastUpdated") {
		if entry[name] != nil {
			return true
		}
	}
	return false
}

// CanonicalName returns the canonical field that key names for kind, if any.
func CanonicalName(kind Kind, key string) (string, bool) {
	for canonical, alts := range aliases[kind] {
		if key == canonical || contains(alts, key) {
			return canonical, true
		}
	}
	return "", false
}
